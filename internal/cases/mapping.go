package cases

import (
	"net/url"

	"github.com/JaimeStill/patentbot/internal/record"
	"github.com/JaimeStill/patentbot/pkg/query"
	"github.com/JaimeStill/patentbot/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "cases", "c").
	Project("id", "ID").
	Project("title", "Title").
	Project("mode", "Mode").
	Project("stage", "Stage").
	Project("status", "Status").
	Project("last_error", "LastError").
	Project("record", "Record").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

const returning = `RETURNING id, title, mode, stage, status, last_error, record, created_at, updated_at`

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for case queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	Mode   *string `json:"mode,omitempty"`
	Stage  *string `json:"stage,omitempty"`
	Status *string `json:"status,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Mode", f.Mode).
		WhereEquals("Stage", f.Stage).
		WhereEquals("Status", f.Status)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if m := values.Get("mode"); m != "" {
		f.Mode = &m
	}
	if s := values.Get("stage"); s != "" {
		f.Stage = &s
	}
	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	return f
}

func scanCase(s repository.Scanner) (Case, error) {
	c := Case{Record: &record.Record{}}
	err := s.Scan(
		&c.ID,
		&c.Title,
		&c.Mode,
		&c.Stage,
		&c.Status,
		&c.LastError,
		c.Record,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}
