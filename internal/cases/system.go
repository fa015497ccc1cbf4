package cases

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/patentbot/internal/documents"
	"github.com/JaimeStill/patentbot/pkg/pagination"
)

// Intake is a newly created case with its stored documents.
type Intake struct {
	Case      *Case                `json:"case"`
	Documents []documents.Document `json:"documents"`
}

// System defines the public contract for case domain operations.
type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Case], error)
	Find(ctx context.Context, id uuid.UUID) (*Case, error)

	// Create registers a case and stores its documents. The patent
	// application and the office action are required.
	Create(ctx context.Context, cmd CreateCommand) (*Intake, error)

	// Delete removes a case with its documents, blobs, and session.
	Delete(ctx context.Context, id uuid.UUID) error

	// Run executes or resumes the upstream pipeline of a case.
	Run(ctx context.Context, id uuid.UUID, sink Sink) (*Case, error)

	// Progress returns the events of the latest run of a case.
	Progress(ctx context.Context, id uuid.UUID) ([]Event, error)
}
