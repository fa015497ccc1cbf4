package documents

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/patentbot/pkg/query"
	"github.com/JaimeStill/patentbot/pkg/repository"
	"github.com/JaimeStill/patentbot/pkg/storage"
)

const uploadConcurrency = 4

type repo struct {
	db      *sql.DB
	storage storage.System
	logger  *slog.Logger
}

// New creates a document repository implementing the System interface.
func New(db *sql.DB, store storage.System, logger *slog.Logger) System {
	return &repo{
		db:      db,
		storage: store,
		logger:  logger.With("system", "documents"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) ListByCase(ctx context.Context, caseID uuid.UUID) ([]Document, error) {
	q, args := query.
		NewBuilder(projection, defaultSort...).
		WhereEquals("CaseID", caseID).
		Build()

	docs, err := repository.QueryMany(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return docs, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	id := uuid.New()
	key := buildStorageKey(cmd.CaseID, id, sanitizeFilename(cmd.Filename))

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload document blob: %w", err)
	}

	q := `
		INSERT INTO documents(id, case_id, role, position, filename, content_type, size_bytes, page_count, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, case_id, role, position, filename, content_type, size_bytes, page_count, storage_key, uploaded_at`

	insertArgs := []any{
		id,
		cmd.CaseID,
		string(cmd.Role),
		cmd.Position,
		cmd.Filename,
		cmd.ContentType,
		int64(len(cmd.Data)),
		cmd.PageCount,
		key,
	}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanDocument)
	})

	if err != nil {
		r.deleteBlob(key)
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document created", "id", d.ID, "case_id", d.CaseID, "role", d.Role, "filename", d.Filename)
	return &d, nil
}

func (r *repo) CreateBatch(ctx context.Context, cmds []CreateCommand) ([]Document, error) {
	docs := make([]Document, len(cmds))
	created := make([]bool, len(cmds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)

	for i, cmd := range cmds {
		g.Go(func() error {
			d, err := r.Create(gctx, cmd)
			if err != nil {
				return fmt.Errorf("%s: %w", cmd.Filename, err)
			}
			docs[i] = *d
			created[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for i, ok := range created {
			if ok {
				r.remove(docs[i])
			}
		}
		return nil, err
	}

	return docs, nil
}

func (r *repo) Open(ctx context.Context, id uuid.UUID) (*Document, *storage.Blob, error) {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	blob, err := r.storage.Download(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("download document %s: %w", id, err)
	}
	return doc, blob, nil
}

func (r *repo) Read(ctx context.Context, doc Document) ([]byte, error) {
	blob, err := r.storage.Download(ctx, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("download document %s: %w", doc.ID, err)
	}
	defer blob.Body.Close()

	data, err := io.ReadAll(blob.Body)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", doc.ID, err)
	}
	return data, nil
}

func (r *repo) Purge(ctx context.Context, caseID uuid.UUID) error {
	docs, err := r.ListByCase(ctx, caseID)
	if err != nil {
		return err
	}

	for _, d := range docs {
		if err := r.storage.Delete(ctx, d.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("blob delete failed", "key", d.StorageKey, "error", err)
		}
	}

	r.logger.Info("case documents purged", "case_id", caseID, "count", len(docs))
	return nil
}

// remove undoes a Create during batch compensation. It runs on a fresh
// context because the batch context is already cancelled.
func (r *repo) remove(d Document) {
	ctx := context.Background()
	if err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM documents WHERE id = $1", d.ID); err != nil {
		r.logger.Warn("compensating document delete failed", "id", d.ID, "error", err)
	}
	r.deleteBlob(d.StorageKey)
}

func (r *repo) deleteBlob(key string) {
	if err := r.storage.Delete(context.Background(), key); err != nil {
		r.logger.Warn("compensating blob delete failed", "key", key, "error", err)
	}
}

func buildStorageKey(caseID, id uuid.UUID, filename string) string {
	return fmt.Sprintf("cases/%s/%s/%s", caseID, id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" || name == ".." || name == "/" {
		name = "document"
	}
	return url.PathEscape(name)
}
