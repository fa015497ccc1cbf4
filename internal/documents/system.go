package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/patentbot/pkg/storage"
)

// System defines the public contract for document domain operations.
type System interface {
	Handler() *Handler

	ListByCase(ctx context.Context, caseID uuid.UUID) ([]Document, error)
	Find(ctx context.Context, id uuid.UUID) (*Document, error)

	// Create uploads the file and registers it. The blob is removed again
	// when registration fails.
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)

	// CreateBatch uploads files concurrently. Either all are registered or
	// none are left behind.
	CreateBatch(ctx context.Context, cmds []CreateCommand) ([]Document, error)

	// Open streams the stored blob for a document. The caller closes the body.
	Open(ctx context.Context, id uuid.UUID) (*Document, *storage.Blob, error)

	// Read loads the stored bytes of a document.
	Read(ctx context.Context, doc Document) ([]byte, error)

	// Purge deletes the blobs of every document in a case. Rows are left to
	// the cascading delete of the case.
	Purge(ctx context.Context, caseID uuid.UUID) error
}
