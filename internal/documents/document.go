// Package documents implements the source documents uploaded for a case.
// It stores file bytes in blob storage and their metadata in PostgreSQL.
package documents

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Role is the part a document plays in an office-action response.
type Role string

const (
	RolePatentApplication Role = "patent_application"
	RoleOfficeAction      Role = "office_action"
	RoleRecentClaims      Role = "recent_claims"
	RolePriorArt          Role = "prior_art"
)

// Roles lists every document role.
func Roles() []Role {
	return []Role{RolePatentApplication, RoleOfficeAction, RoleRecentClaims, RolePriorArt}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return slices.Contains(Roles(), r)
}

// Document represents an uploaded file with its metadata and blob storage reference.
type Document struct {
	ID          uuid.UUID `json:"id"`
	CaseID      uuid.UUID `json:"case_id"`
	Role        Role      `json:"role"`
	Position    int       `json:"position"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	PageCount   *int      `json:"page_count"`
	StorageKey  string    `json:"storage_key"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// File is an uploaded file read into memory. PageCount is set for PDFs.
type File struct {
	Role        Role
	Position    int
	Filename    string
	ContentType string
	Data        []byte
	PageCount   *int
}

// CreateCommand carries a file to upload and register under a case.
type CreateCommand struct {
	CaseID uuid.UUID
	File
}
