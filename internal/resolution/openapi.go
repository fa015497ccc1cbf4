package resolution

import "github.com/JaimeStill/patentbot/pkg/openapi"

type spec struct {
	Start    *openapi.Operation
	Present  *openapi.Operation
	Select   *openapi.Operation
	Confirm  *openapi.Operation
	Finalize *openapi.Operation
	Schemas  map[string]*openapi.Schema
}

// Spec documents the session endpoints.
var Spec = spec{
	Start: &openapi.Operation{
		Summary:     "Start a resolution session",
		Description: "Creates the session for a case whose rejection responses are ready, or returns the existing one.",
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Case UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Resolution session", "Session"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Present: &openapi.Operation{
		Summary:    "Present the current claim",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Session UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Current claim or generated draft", "Presentation"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Select: &openapi.Operation{
		Summary:     "Stage a disposition",
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Session UUID")},
		RequestBody: openapi.RequestBodyJSON("SelectCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Claim with staged disposition", "Presentation"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Confirm: &openapi.Operation{
		Summary:     "Confirm the staged disposition",
		Description: "Records the disposition in the case record and advances the cursor. Confirming the last claim generates the draft.",
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Session UUID")},
		RequestBody: openapi.RequestBodyJSON("ConfirmCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Next claim, or the draft after the last claim", "Presentation"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
			502: openapi.ResponseRef("BadGateway"),
		},
	},
	Finalize: &openapi.Operation{
		Summary:     "Generate the draft",
		Description: "Retries draft generation for a resolved session. Returns the stored draft when already generated.",
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Session UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Generated draft", "Presentation"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
			502: openapi.ResponseRef("BadGateway"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"Session": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":              {Type: "string", Format: "uuid"},
				"case_id":         {Type: "string", Format: "uuid"},
				"operator":        {Type: "string"},
				"claims_list":     {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"claim_iteration": {Type: "integer"},
				"your_choices":    {Type: "object", Description: "Claim id to confirmed disposition"},
				"state":           {Type: "string", Enum: []any{"awaiting_choice", "all_resolved", "draft_generated"}},
				"staged":          {Type: "string"},
				"created_at":      {Type: "string", Format: "date-time"},
				"updated_at":      {Type: "string", Format: "date-time"},
			},
		},
		"Candidate": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"disposition": {Type: "string"},
				"text":        {Type: "string"},
			},
		},
		"Presentation": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"session_id":      {Type: "string", Format: "uuid"},
				"case_id":         {Type: "string", Format: "uuid"},
				"state":           {Type: "string"},
				"claim_iteration": {Type: "integer"},
				"total_claims":    {Type: "integer"},
				"claim_id":        {Type: "string"},
				"original_claim":  {Type: "string"},
				"rejected_for":    {Type: "string"},
				"candidates":      {Type: "array", Items: openapi.SchemaRef("Candidate")},
				"dispositions":    {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"staged":          {Type: "string"},
				"your_choices":    {Type: "object"},
				"draft":           {Type: "string"},
			},
		},
		"SelectCommand": {
			Type:     "object",
			Required: []string{"claim_iteration", "choice"},
			Properties: map[string]*openapi.Schema{
				"claim_iteration": {Type: "integer", Description: "Cursor the choice applies to"},
				"choice":          {Type: "string", Enum: []any{"amend", "dispute", "combine", "remove"}},
			},
		},
		"ConfirmCommand": {
			Type:     "object",
			Required: []string{"claim_iteration", "choice"},
			Properties: map[string]*openapi.Schema{
				"claim_iteration": {Type: "integer", Description: "Cursor the choice applies to"},
				"choice":          {Type: "string", Enum: []any{"amend", "dispute", "combine", "remove"}},
				"note":            {Type: "string", Description: "Response text used when the record has no candidate for the choice"},
			},
		},
	},
}
