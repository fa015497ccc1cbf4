// Package cases implements office-action response cases: intake of the
// source documents and the resumable upstream pipeline that prepares the
// case record for claim resolution.
package cases

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/patentbot/internal/documents"
	"github.com/JaimeStill/patentbot/internal/record"
)

// Mode selects which pipeline a case runs.
type Mode string

const (
	// ModeInteractive stops after rejection responses so an operator can
	// resolve each claim.
	ModeInteractive Mode = "interactive"
	// ModeSinglePass plans and executes a strategy and generates the draft
	// without operator input.
	ModeSinglePass Mode = "single_pass"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeInteractive || m == ModeSinglePass
}

// Stage is the last pipeline step a case completed.
type Stage string

const (
	StageUploaded            Stage = "uploaded"
	StageExtracted           Stage = "extracted"
	StageReferencesFetched   Stage = "references_fetched"
	StageKnowledgeRetrieved  Stage = "knowledge_retrieved"
	StageRejectionsResponded Stage = "rejections_responded"
	StageStrategyPlanned     Stage = "strategy_planned"
	StageStrategyExecuted    Stage = "strategy_executed"
	StageDraftGenerated      Stage = "draft_generated"
)

// Status is the run state of a case.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusFailed   Status = "failed"
	StatusReady    Status = "ready"
	StatusComplete Status = "complete"
)

// Case is one office-action response in progress.
type Case struct {
	ID        uuid.UUID      `json:"id"`
	Title     string         `json:"title"`
	Mode      Mode           `json:"mode"`
	Stage     Stage          `json:"stage"`
	Status    Status         `json:"status"`
	LastError *string        `json:"last_error"`
	Record    *record.Record `json:"record"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CreateCommand carries the intake form of a new case.
type CreateCommand struct {
	Title string
	Mode  Mode
	Files []documents.File
}

// requiredRoles must each be present exactly once at intake.
var requiredRoles = []documents.Role{
	documents.RolePatentApplication,
	documents.RoleOfficeAction,
}

func (c CreateCommand) missingRole() (documents.Role, bool) {
	for _, role := range requiredRoles {
		if !slices.ContainsFunc(c.Files, func(f documents.File) bool { return f.Role == role }) {
			return role, true
		}
	}
	return "", false
}
