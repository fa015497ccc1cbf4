package cases

import "github.com/JaimeStill/patentbot/pkg/openapi"

type spec struct {
	List     *openapi.Operation
	Create   *openapi.Operation
	Search   *openapi.Operation
	Find     *openapi.Operation
	Delete   *openapi.Operation
	Run      *openapi.Operation
	Progress *openapi.Operation
	Schemas  map[string]*openapi.Schema
}

var fileField = &openapi.Schema{Type: "string", Format: "binary"}

// Spec documents the case endpoints.
var Spec = spec{
	List: &openapi.Operation{
		Summary: "List cases",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Search by title", false),
			openapi.QueryParam("sort", "string", "Comma-separated sort fields", false),
			openapi.QueryParam("mode", "string", "Filter by mode", false),
			openapi.QueryParam("stage", "string", "Filter by stage", false),
			openapi.QueryParam("status", "string", "Filter by status", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Paginated cases", "CasePage"),
		},
	},
	Create: &openapi.Operation{
		Summary:     "Create a case",
		Description: "Uploads the source documents of an office-action response. The patent application and the office action are required.",
		RequestBody: openapi.RequestBodyMultipart(&openapi.Schema{
			Type:     "object",
			Required: []string{"patent_application", "office_action"},
			Properties: map[string]*openapi.Schema{
				"title":              {Type: "string"},
				"mode":               {Type: "string", Enum: []any{"interactive", "single_pass"}},
				"patent_application": fileField,
				"office_action":      fileField,
				"recent_claims":      fileField,
				"prior_art":          {Type: "array", Items: fileField},
			},
		}),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Created case with its documents", "Intake"),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("PayloadTooLarge"),
		},
	},
	Search: &openapi.Operation{
		Summary:     "Search cases",
		RequestBody: openapi.RequestBodyJSON("CaseSearch", false),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Paginated cases", "CasePage"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Get a case",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Case UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Case with its record", "Case"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Delete: &openapi.Operation{
		Summary:    "Delete a case",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Case UUID")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Case deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Run: &openapi.Operation{
		Summary:     "Run the case pipeline",
		Description: "Runs the remaining pipeline stages, resuming after the last completed one. Send Accept: application/x-ndjson to stream progress events.",
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Case UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseStream("Updated case, or a stream of progress events", "Case", "Event"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
			502: openapi.ResponseRef("BadGateway"),
		},
	},
	Progress: &openapi.Operation{
		Summary:    "Get run progress",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Case UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseArray("Events of the latest run", "Event"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"Case": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":         {Type: "string", Format: "uuid"},
				"title":      {Type: "string"},
				"mode":       {Type: "string", Enum: []any{"interactive", "single_pass"}},
				"stage":      {Type: "string"},
				"status":     {Type: "string", Enum: []any{"pending", "running", "failed", "ready", "complete"}},
				"last_error": {Type: "string"},
				"record":     {Type: "object", Description: "Case record as returned by the processing service"},
				"created_at": {Type: "string", Format: "date-time"},
				"updated_at": {Type: "string", Format: "date-time"},
			},
		},
		"CasePage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Case")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
		"CaseSearch": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"page":      {Type: "integer"},
				"page_size": {Type: "integer"},
				"search":    {Type: "string"},
				"mode":      {Type: "string"},
				"stage":     {Type: "string"},
				"status":    {Type: "string"},
			},
		},
		"Intake": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"case":      openapi.SchemaRef("Case"),
				"documents": {Type: "array", Items: openapi.SchemaRef("Document")},
			},
		},
		"Event": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"case_id":    {Type: "string", Format: "uuid"},
				"type":       {Type: "string", Enum: []any{"stage_started", "stage_completed", "references_found", "no_references", "chunk", "failed", "completed"}},
				"stage":      {Type: "string"},
				"message":    {Type: "string"},
				"text":       {Type: "string"},
				"references": {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"time":       {Type: "string", Format: "date-time"},
			},
		},
	},
}
