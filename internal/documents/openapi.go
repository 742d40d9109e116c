package documents

import "github.com/JaimeStill/regwatch/pkg/openapi"

type docsSpec struct {
	List            *openapi.Operation
	Search          *openapi.Operation
	CreatePrimary   *openapi.Operation
	CreateSecondary *openapi.Operation
	FindPrimary     *openapi.Operation
	Similar         *openapi.Operation
	DeletePrimary   *openapi.Operation
	FindSecondary   *openapi.Operation
	DeleteSecondary *openapi.Operation
	Schemas         map[string]*openapi.Schema
}

func uploadBody(secondary bool) *openapi.RequestBody {
	props := map[string]*openapi.Schema{
		"file":            {Type: "string", Format: "binary", Description: "PDF, DOCX, HTML, or plain text file"},
		"document_type":   {Type: "string", Example: "PL"},
		"document_name":   {Type: "string", Example: "PL 1234/2024"},
		"document_number": {Type: "integer", Example: 1234},
		"document_year":   {Type: "integer", Example: 2024},
		"presented_by":    {Type: "string"},
		"presented_at":    {Type: "string", Description: "RFC 3339 timestamp or YYYY-MM-DD"},
		"link":            {Type: "string"},
	}
	required := []string{"file", "document_type", "document_name", "document_number", "document_year", "presented_by", "presented_at"}

	if secondary {
		props["primary_id"] = &openapi.Schema{Type: "string", Format: "uuid"}
		props["role"] = &openapi.Schema{Type: "string"}
		props["party_affiliation"] = &openapi.Schema{Type: "string"}
		required = append(required, "primary_id")
	}

	return &openapi.RequestBody{
		Required: true,
		Content: map[string]*openapi.MediaType{
			"multipart/form-data": {
				Schema: &openapi.Schema{Type: "object", Properties: props, Required: required},
			},
		},
	}
}

func uploadResponses() map[int]*openapi.Response {
	return map[int]*openapi.Response{
		201: openapi.ResponseJSON("Document analyzed and stored", "Outcome"),
		200: openapi.ResponseJSON("Document judged irrelevant and not stored", "Outcome"),
		400: openapi.ResponseRef("BadRequest"),
		404: openapi.ResponseRef("NotFound"),
		409: openapi.ResponseRef("Conflict"),
		413: openapi.ResponseRef("PayloadTooLarge"),
		422: openapi.ResponseRef("UnprocessableEntity"),
		500: openapi.ResponseRef("InternalError"),
	}
}

var spec = docsSpec{
	List: &openapi.Operation{
		Summary: "List primary documents",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("sort", "string", "Sort fields", false),
			openapi.QueryParam("document_type", "string", "Exact document type", false),
			openapi.QueryParam("document_name", "string", "Name contains", false),
			openapi.QueryParam("document_year", "integer", "Exact year", false),
			openapi.QueryParam("year_from", "integer", "Earliest year, inclusive", false),
			openapi.QueryParam("year_to", "integer", "Latest year, inclusive", false),
			openapi.QueryParam("document_number", "integer", "Exact number", false),
			openapi.QueryParam("presented_by", "string", "Author contains", false),
			openapi.QueryParam("content_type", "string", "Exact content type", false),
			openapi.QueryParam("subject", "string", "Linked subject name", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Paginated primary documents", "PrimaryPageResult"),
		},
	},
	Search: &openapi.Operation{
		Summary:     "Search primary documents",
		RequestBody: openapi.RequestBodyJSON("PageRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Paginated primary documents", "PrimaryPageResult"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	CreatePrimary: &openapi.Operation{
		Summary:     "Upload a primary document",
		RequestBody: uploadBody(false),
		Responses:   uploadResponses(),
	},
	CreateSecondary: &openapi.Operation{
		Summary:     "Upload a secondary document attached to a primary",
		RequestBody: uploadBody(true),
		Responses:   uploadResponses(),
	},
	FindPrimary: &openapi.Operation{
		Summary:    "Find a primary document with its secondaries",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Primary document UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Primary document", "PrimaryDetail"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Similar: &openapi.Operation{
		Summary: "Similarity search within a primary document's collection",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Primary document UUID"),
			openapi.QueryParam("q", "string", "Query text", true),
			openapi.IntRange(openapi.QueryParam("k", "integer", "Number of chunks", false), 1, maxSimilarK, defaultSimilarK),
		},
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Nearest chunks",
				Content: map[string]*openapi.MediaType{
					"application/json": {Schema: &openapi.Schema{Type: "array", Items: openapi.SchemaRef("Match")}},
				},
			},
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	DeletePrimary: &openapi.Operation{
		Summary:    "Delete a primary document and its secondaries",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Primary document UUID")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	FindSecondary: &openapi.Operation{
		Summary:    "Find a secondary document",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Secondary document UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Secondary document", "Secondary"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	DeleteSecondary: &openapi.Operation{
		Summary:    "Delete a secondary document",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Secondary document UUID")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"KeyPoints": {
			Type:                 "object",
			Description:          "Topic to description, in extraction order",
			AdditionalProperties: &openapi.Schema{Type: "string"},
		},
		"Outcome": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"document_id":      {Type: "string", Format: "uuid"},
				"document_name":    {Type: "string"},
				"primary_document": {Type: "string"},
				"status":           {Type: "string", Enum: []any{"success", "irrelevant"}},
				"subjects":         {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"central_theme":    {Type: "string"},
				"key_points":       openapi.SchemaRef("KeyPoints"),
				"relevance_score":  {Type: "number"},
				"reason":           {Type: "string"},
				"chunks_indexed":   {Type: "integer"},
				"message":          {Type: "string"},
			},
		},
		"Primary": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":              {Type: "string", Format: "uuid"},
				"filename":        {Type: "string"},
				"content_type":    {Type: "string"},
				"size_bytes":      {Type: "integer"},
				"page_count":      {Type: "integer"},
				"storage_key":     {Type: "string"},
				"collection_name": {Type: "string"},
				"document_type":   {Type: "string"},
				"document_name":   {Type: "string"},
				"document_number": {Type: "integer"},
				"document_year":   {Type: "integer"},
				"presented_by":    {Type: "string"},
				"presented_at":    {Type: "string", Format: "date-time"},
				"link":            {Type: "string"},
				"summary":         {Type: "string"},
				"central_theme":   {Type: "string"},
				"key_points":      openapi.SchemaRef("KeyPoints"),
				"relevance_score": {Type: "number"},
				"subjects":        {Type: "array", Items: &openapi.Schema{Type: "object"}},
				"created_at":      {Type: "string", Format: "date-time"},
				"updated_at":      {Type: "string", Format: "date-time"},
			},
		},
		"Secondary": {
			Type:        "object",
			Description: "Primary fields plus primary_id, role, and party_affiliation",
		},
		"PrimaryDetail": {
			Type:        "object",
			Description: "Primary fields plus a secondaries array",
		},
		"PrimaryPageResult": openapi.PageOf("Primary"),
		"Match": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"collection": {Type: "string"},
				"content":    {Type: "string"},
				"metadata":   {Type: "object"},
				"distance":   {Type: "number"},
			},
		},
	},
}
