package subjects

import "github.com/JaimeStill/regwatch/pkg/openapi"

type subjectsSpec struct {
	List       *openapi.Operation
	Vocabulary *openapi.Operation
	Find       *openapi.Operation
	Create     *openapi.Operation
	Delete     *openapi.Operation
	Schemas    map[string]*openapi.Schema
}

var spec = subjectsSpec{
	List: &openapi.Operation{
		Summary: "List vocabulary subjects",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("name", "string", "Name contains", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Paginated subjects", "SubjectPageResult"),
		},
	},
	Vocabulary: &openapi.Operation{
		Summary: "Subject names offered to the classifier",
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Alphabetical subject names",
				Content: map[string]*openapi.MediaType{
					"application/json": {Schema: &openapi.Schema{Type: "array", Items: &openapi.Schema{Type: "string"}}},
				},
			},
		},
	},
	Find: &openapi.Operation{
		Summary:    "Find a subject",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Subject UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Subject", "Subject"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Create: &openapi.Operation{
		Summary:     "Add a subject to the vocabulary",
		RequestBody: openapi.RequestBodyJSON("CreateSubject", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Created subject", "Subject"),
			400: openapi.ResponseRef("BadRequest"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Delete: &openapi.Operation{
		Summary:    "Remove a subject from the vocabulary",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Subject UUID")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"Subject": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":          {Type: "string", Format: "uuid"},
				"name":        {Type: "string"},
				"description": {Type: "string"},
				"created_at":  {Type: "string", Format: "date-time"},
			},
		},
		"CreateSubject": {
			Type:     "object",
			Required: []string{"name"},
			Properties: map[string]*openapi.Schema{
				"name":        {Type: "string", Example: "Transmission tariffs"},
				"description": {Type: "string"},
			},
		},
		"SubjectPageResult": openapi.PageOf("Subject"),
	},
}
