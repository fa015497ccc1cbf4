package documents

import (
	"github.com/JaimeStill/patentbot/pkg/query"
	"github.com/JaimeStill/patentbot/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("case_id", "CaseID").
	Project("role", "Role").
	Project("position", "Position").
	Project("filename", "Filename").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("storage_key", "StorageKey").
	Project("uploaded_at", "UploadedAt")

var defaultSort = []query.SortField{
	{Field: "Role"},
	{Field: "Position"},
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.CaseID,
		&d.Role,
		&d.Position,
		&d.Filename,
		&d.ContentType,
		&d.SizeBytes,
		&d.PageCount,
		&d.StorageKey,
		&d.UploadedAt,
	)
	return d, err
}
