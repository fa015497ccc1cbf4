package documents

import "github.com/JaimeStill/patentbot/pkg/openapi"

type spec struct {
	ListByCase *openapi.Operation
	Find       *openapi.Operation
	Download   *openapi.Operation
	Schemas    map[string]*openapi.Schema
}

// Spec documents the document endpoints.
var Spec = spec{
	ListByCase: &openapi.Operation{
		Summary:    "List case documents",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Case UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseArray("Documents ordered by role and position", "Document"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Find document",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document metadata", "Document"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Download: &openapi.Operation{
		Summary:    "Download document",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document UUID")},
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Stored file",
				Content: map[string]*openapi.MediaType{
					"application/octet-stream": {Schema: &openapi.Schema{Type: "string", Format: "binary"}},
				},
			},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"Document": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"case_id":      {Type: "string", Format: "uuid"},
				"role":         {Type: "string", Enum: []any{"patent_application", "office_action", "recent_claims", "prior_art"}},
				"position":     {Type: "integer", Description: "Upload order within the role"},
				"filename":     {Type: "string"},
				"content_type": {Type: "string"},
				"size_bytes":   {Type: "integer"},
				"page_count":   {Type: "integer", Description: "PDF page count, null for other files"},
				"storage_key":  {Type: "string"},
				"uploaded_at":  {Type: "string", Format: "date-time"},
			},
		},
	},
}
