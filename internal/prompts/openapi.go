package prompts

import "github.com/JaimeStill/regwatch/pkg/openapi"

type promptsSpec struct {
	List         *openapi.Operation
	Stages       *openapi.Operation
	Find         *openapi.Operation
	Instructions *openapi.Operation
	Spec         *openapi.Operation
	Create       *openapi.Operation
	Update       *openapi.Operation
	Delete       *openapi.Operation
	Search       *openapi.Operation
	Activate     *openapi.Operation
	Deactivate   *openapi.Operation
	Schemas      map[string]*openapi.Schema
}

func stageParam() *openapi.Parameter {
	enum := make([]any, len(stages))
	for i, s := range stages {
		enum[i] = string(s)
	}
	return &openapi.Parameter{
		Name:     "stage",
		In:       "path",
		Required: true,
		Schema:   &openapi.Schema{Type: "string", Enum: enum},
	}
}

func textResponse(description string) *openapi.Response {
	return &openapi.Response{
		Description: description,
		Content: map[string]*openapi.MediaType{
			"application/json": {
				Schema: &openapi.Schema{
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"stage":   {Type: "string"},
						"content": {Type: "string"},
					},
				},
			},
		},
	}
}

var spec = promptsSpec{
	List: &openapi.Operation{
		Summary: "List prompt overrides",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Name or description contains", false),
			openapi.QueryParam("sort", "string", "Comma-separated fields, prefix - for descending", false),
			openapi.QueryParam("stage", "string", "Exact stage", false),
			openapi.QueryParam("name", "string", "Name contains", false),
			openapi.QueryParam("active", "boolean", "Active state", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Paginated prompts", "PromptPageResult"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Stages: &openapi.Operation{
		Summary: "List analysis stages",
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Stage names",
				Content: map[string]*openapi.MediaType{
					"application/json": {Schema: &openapi.Schema{Type: "array", Items: &openapi.Schema{Type: "string"}}},
				},
			},
		},
	},
	Find: &openapi.Operation{
		Summary:    "Find a prompt override",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Prompt UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Prompt", "Prompt"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Instructions: &openapi.Operation{
		Summary:    "Effective instructions for a stage",
		Parameters: []*openapi.Parameter{stageParam()},
		Responses: map[int]*openapi.Response{
			200: textResponse("Active override or built-in default"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Spec: &openapi.Operation{
		Summary:    "Output contract for a stage",
		Parameters: []*openapi.Parameter{stageParam()},
		Responses: map[int]*openapi.Response{
			200: textResponse("Fixed output specification"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Create: &openapi.Operation{
		Summary:     "Create a prompt override",
		RequestBody: openapi.RequestBodyJSON("PromptCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Created prompt", "Prompt"),
			400: openapi.ResponseRef("BadRequest"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Update: &openapi.Operation{
		Summary:     "Update a prompt override",
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Prompt UUID")},
		RequestBody: openapi.RequestBodyJSON("PromptCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Updated prompt", "Prompt"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Delete: &openapi.Operation{
		Summary:    "Delete a prompt override",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Prompt UUID")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Deleted"},
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Search: &openapi.Operation{
		Summary:     "Search prompt overrides",
		RequestBody: openapi.RequestBodyJSON("PageRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Paginated prompts", "PromptPageResult"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Activate: &openapi.Operation{
		Summary:     "Activate a prompt override",
		Description: "Deactivates any other active override for the same stage.",
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Prompt UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Activated prompt", "Prompt"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Deactivate: &openapi.Operation{
		Summary:    "Deactivate a prompt override",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Prompt UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Deactivated prompt", "Prompt"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"Prompt": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"name":         {Type: "string"},
				"stage":        {Type: "string"},
				"instructions": {Type: "string"},
				"description":  {Type: "string", Description: "Null when unset"},
				"active":       {Type: "boolean"},
				"created_at":   {Type: "string", Format: "date-time"},
				"updated_at":   {Type: "string", Format: "date-time"},
			},
		},
		"PromptCommand": {
			Type:     "object",
			Required: []string{"name", "stage", "instructions"},
			Properties: map[string]*openapi.Schema{
				"name":         {Type: "string"},
				"stage":        {Type: "string"},
				"instructions": {Type: "string"},
				"description":  {Type: "string"},
			},
		},
		"PromptPageResult": openapi.PageOf("Prompt"),
	},
}
