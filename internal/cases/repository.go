package cases

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/patentbot/internal/documents"
	"github.com/JaimeStill/patentbot/internal/record"
	"github.com/JaimeStill/patentbot/pkg/pagination"
	"github.com/JaimeStill/patentbot/pkg/query"
	"github.com/JaimeStill/patentbot/pkg/repository"
)

type repo struct {
	db            *sql.DB
	docs          documents.System
	runner        *Runner
	progress      *Progress
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// New creates a case repository implementing the System interface.
// It internally constructs the pipeline runner over be.
func New(
	db *sql.DB,
	docs documents.System,
	be Backend,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
	progressTTL time.Duration,
) System {
	r := &repo{
		db:            db,
		docs:          docs,
		progress:      NewProgress(progressTTL),
		logger:        logger.With("system", "cases"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
	r.runner = NewRunner(r, docs, be, r.progress, logger)
	return r
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination, r.maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Case], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanCase)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	return result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Case, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCase)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Intake, error) {
	if cmd.Mode == "" {
		cmd.Mode = ModeInteractive
	}
	if !cmd.Mode.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMode, cmd.Mode)
	}
	if role, missing := cmd.missingRole(); missing {
		return nil, fmt.Errorf("%w: %s", ErrMissingDocument, role)
	}

	q := `
		INSERT INTO cases(title, mode, stage, status, record)
		VALUES ($1, $2, $3, $4, $5)
		` + returning

	args := []any{cmd.Title, string(cmd.Mode), string(StageUploaded), string(StatusPending), &record.Record{}}

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Case, error) {
		return repository.QueryOne(ctx, tx, q, args, scanCase)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	cmds := make([]documents.CreateCommand, len(cmd.Files))
	for i, f := range cmd.Files {
		cmds[i] = documents.CreateCommand{CaseID: c.ID, File: f}
	}

	docs, err := r.docs.CreateBatch(ctx, cmds)
	if err != nil {
		r.remove(c.ID)
		return nil, fmt.Errorf("store documents: %w", err)
	}

	r.logger.Info("case created", "id", c.ID, "mode", c.Mode, "documents", len(docs))
	return &Intake{Case: &c, Documents: docs}, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.Find(ctx, id); err != nil {
		return err
	}

	if err := r.docs.Purge(ctx, id); err != nil {
		return fmt.Errorf("purge documents: %w", err)
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, "DELETE FROM cases WHERE id = $1", id)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.progress.Forget(id)
	r.logger.Info("case deleted", "id", id)
	return nil
}

func (r *repo) Run(ctx context.Context, id uuid.UUID, sink Sink) (*Case, error) {
	return r.runner.Run(ctx, id, sink)
}

func (r *repo) Progress(ctx context.Context, id uuid.UUID) ([]Event, error) {
	if _, err := r.Find(ctx, id); err != nil {
		return nil, err
	}

	events := r.progress.Events(id)
	if events == nil {
		events = []Event{}
	}
	return events, nil
}

func (r *repo) Begin(ctx context.Context, id uuid.UUID) (*Case, error) {
	q := `
		UPDATE cases SET status = $2, last_error = NULL, updated_at = NOW()
		WHERE id = $1
		` + returning

	return r.update(ctx, q, id, string(StatusRunning))
}

func (r *repo) Advance(ctx context.Context, id uuid.UUID, stage Stage, rec *record.Record, status Status) (*Case, error) {
	q := `
		UPDATE cases SET stage = $2, record = $3, status = $4, updated_at = NOW()
		WHERE id = $1
		` + returning

	return r.update(ctx, q, id, string(stage), rec, string(status))
}

func (r *repo) Fail(ctx context.Context, id uuid.UUID, cause error) (*Case, error) {
	q := `
		UPDATE cases SET status = $2, last_error = $3, updated_at = NOW()
		WHERE id = $1
		` + returning

	return r.update(ctx, q, id, string(StatusFailed), cause.Error())
}

func (r *repo) update(ctx context.Context, q string, id uuid.UUID, values ...any) (*Case, error) {
	args := append([]any{id}, values...)

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Case, error) {
		return repository.QueryOne(ctx, tx, q, args, scanCase)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

// remove undoes a case insert when its documents could not be stored.
func (r *repo) remove(id uuid.UUID) {
	if err := repository.ExecExpectOne(context.Background(), r.db, "DELETE FROM cases WHERE id = $1", id); err != nil {
		r.logger.Warn("compensating case delete failed", "id", id, "error", err)
	}
}
