package openapi

import "maps"

// BearerScheme is the security scheme name used when the API requires tokens.
const BearerScheme = "bearer"

// errorBody matches handlers.RespondError output.
var errorBody = &Schema{
	Type: "object",
	Properties: map[string]*Schema{
		"error": {Type: "string", Description: "Error message"},
	},
	Required: []string{"error"},
}

func errorResponse(description string) *Response {
	return &Response{Description: description, Content: jsonContent(errorBody)}
}

// NewComponents creates Components holding the pagination request schema and
// the error responses every domain shares.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"PageRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"page":      {Type: "integer", Description: "Page number (1-indexed)", Example: 1},
					"page_size": {Type: "integer", Description: "Results per page", Example: 20},
					"search":    {Type: "string", Description: "Search query"},
					"sort":      {Description: "Comma-separated sort fields with - for descending (document_name,-created_at), or an array of {field, descending} objects"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":          errorResponse("Invalid request"),
			"Unauthorized":        errorResponse("Missing or invalid bearer token"),
			"NotFound":            errorResponse("Resource not found"),
			"Conflict":            errorResponse("Resource already exists"),
			"PayloadTooLarge":     errorResponse("Upload exceeds the configured maximum size"),
			"UnprocessableEntity": errorResponse("Document could not be analyzed"),
			"InternalError":       errorResponse("Unexpected server error"),
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}
