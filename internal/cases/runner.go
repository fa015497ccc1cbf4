package cases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/patentbot/internal/backend"
	"github.com/JaimeStill/patentbot/internal/documents"
	"github.com/JaimeStill/patentbot/internal/record"
)

// Backend is the remote processing service as the pipeline calls it.
type Backend interface {
	ExtractText(ctx context.Context, uploads []backend.Upload) (*record.Record, error)
	FetchReferences(ctx context.Context, rec *record.Record) (*record.Record, error)
	RetrieveKnowledgeBase(ctx context.Context, rec *record.Record) (*record.Record, error)
	RespondToRejections(ctx context.Context, rec *record.Record) (*record.Record, error)
	PlanStrategy(ctx context.Context, rec *record.Record, onChunk func(string) error) (string, error)
	ExecuteStrategy(ctx context.Context, rec *record.Record, onChunk func(string) error) (string, error)
	GenerateDraft(ctx context.Context, rec *record.Record) (*record.Record, error)
}

// DocumentSource provides the stored uploads of a case.
type DocumentSource interface {
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]documents.Document, error)
	Read(ctx context.Context, doc documents.Document) ([]byte, error)
}

// RunStore persists pipeline progress.
type RunStore interface {
	Find(ctx context.Context, id uuid.UUID) (*Case, error)
	// Begin marks the case running and clears its last error.
	Begin(ctx context.Context, id uuid.UUID) (*Case, error)
	// Advance stores the record returned by a completed stage.
	Advance(ctx context.Context, id uuid.UUID, stage Stage, rec *record.Record, status Status) (*Case, error)
	// Fail marks the case failed at its current stage.
	Fail(ctx context.Context, id uuid.UUID, cause error) (*Case, error)
}

type step func(ctx context.Context, c *Case, rec *record.Record, emit Sink) (*record.Record, error)

// Runner executes the upstream pipeline of a case one stage at a time,
// persisting the record after every stage so a failed run resumes where
// it stopped.
type Runner struct {
	store    RunStore
	docs     DocumentSource
	backend  Backend
	progress *Progress
	logger   *slog.Logger
	steps    map[Stage]step

	mu     sync.Mutex
	active map[uuid.UUID]struct{}
}

// NewRunner creates a Runner over the given store, document source, and backend.
func NewRunner(store RunStore, docs DocumentSource, be Backend, progress *Progress, logger *slog.Logger) *Runner {
	r := &Runner{
		store:    store,
		docs:     docs,
		backend:  be,
		progress: progress,
		logger:   logger.With("runner", "cases"),
		active:   make(map[uuid.UUID]struct{}),
	}

	r.steps = map[Stage]step{
		StageExtracted:           r.extract,
		StageReferencesFetched:   r.fetchReferences,
		StageKnowledgeRetrieved:  r.call(Backend.RetrieveKnowledgeBase),
		StageRejectionsResponded: r.call(Backend.RespondToRejections),
		StageStrategyPlanned:     r.streamInto(StageStrategyPlanned, record.FieldStrategy, Backend.PlanStrategy),
		StageStrategyExecuted:    r.streamInto(StageStrategyExecuted, record.FieldResponse, Backend.ExecuteStrategy),
		StageDraftGenerated:      r.call(Backend.GenerateDraft),
	}

	return r
}

// Run executes the remaining stages of a case. Events go to the progress
// log and to sink when it is not nil. A case with nothing left to run is
// returned unchanged.
func (r *Runner) Run(ctx context.Context, id uuid.UUID, sink Sink) (*Case, error) {
	if !r.acquire(id) {
		return nil, ErrRunInProgress
	}
	defer r.release(id)

	c, err := r.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	remaining := Remaining(c.Mode, c.Stage)
	if len(remaining) == 0 {
		return c, nil
	}

	if c, err = r.store.Begin(ctx, id); err != nil {
		return nil, err
	}

	r.progress.Reset(id)
	emit := func(ev Event) {
		ev.CaseID = id
		ev.Time = time.Now().UTC()
		r.progress.Append(id, ev)
		if sink != nil {
			sink(ev)
		}
	}

	rec := c.Record
	if rec == nil {
		rec = &record.Record{}
	}

	for i, stage := range remaining {
		emit(Event{Type: EventStageStarted, Stage: stage})
		r.logger.Info("stage started", "case_id", id, "stage", stage)

		next, err := r.steps[stage](ctx, c, rec, emit)
		if err != nil {
			return nil, r.fail(ctx, id, stage, err, emit)
		}

		status := StatusRunning
		if i == len(remaining)-1 {
			status = finalStatus(c.Mode)
		}

		if c, err = r.store.Advance(ctx, id, stage, next, status); err != nil {
			return nil, r.fail(ctx, id, stage, err, emit)
		}
		rec = next

		emit(Event{Type: EventStageCompleted, Stage: stage})
		r.logger.Info("stage completed", "case_id", id, "stage", stage)
	}

	emit(Event{Type: EventCompleted, Stage: c.Stage})
	return c, nil
}

func (r *Runner) fail(ctx context.Context, id uuid.UUID, stage Stage, cause error, emit Sink) error {
	err := fmt.Errorf("%w: %s: %w", ErrStepFailed, stage, cause)
	emit(Event{Type: EventFailed, Stage: stage, Message: cause.Error()})
	r.logger.Error("stage failed", "case_id", id, "stage", stage, "error", cause)

	if _, ferr := r.store.Fail(context.WithoutCancel(ctx), id, err); ferr != nil {
		r.logger.Error("record case failure", "case_id", id, "error", ferr)
	}
	return err
}

func (r *Runner) acquire(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[id]; ok {
		return false
	}
	r.active[id] = struct{}{}
	return true
}

func (r *Runner) release(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}

func (r *Runner) extract(ctx context.Context, c *Case, _ *record.Record, _ Sink) (*record.Record, error) {
	docs, err := r.docs.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	uploads := make([]backend.Upload, 0, len(docs))
	priorArt := 0
	for _, d := range docs {
		field, ok := uploadField(d.Role, &priorArt)
		if !ok {
			continue
		}

		data, err := r.docs.Read(ctx, d)
		if err != nil {
			return nil, err
		}

		uploads = append(uploads, backend.Upload{
			Field:       field,
			Filename:    d.Filename,
			ContentType: d.ContentType,
			Data:        data,
		})
	}

	return r.backend.ExtractText(ctx, uploads)
}

func (r *Runner) fetchReferences(ctx context.Context, _ *Case, rec *record.Record, emit Sink) (*record.Record, error) {
	refs, err := rec.References()
	if err != nil {
		return nil, err
	}

	if len(refs) == 0 {
		emit(Event{Type: EventNoReferences, Stage: StageReferencesFetched, Message: "no references were found in the office action"})
		return rec, nil
	}

	emit(Event{Type: EventReferencesFound, Stage: StageReferencesFetched, References: refs})
	return r.backend.FetchReferences(ctx, rec)
}

// call adapts a record-to-record backend method. The method is resolved
// against the runner's backend when the step runs.
func (r *Runner) call(fn func(Backend, context.Context, *record.Record) (*record.Record, error)) step {
	return func(ctx context.Context, _ *Case, rec *record.Record, _ Sink) (*record.Record, error) {
		return fn(r.backend, ctx, rec)
	}
}

// streamInto runs a streaming step and stores the accumulated text under
// field once the stream is drained. Each chunk is emitted as it arrives.
func (r *Runner) streamInto(
	stage Stage,
	field string,
	fn func(Backend, context.Context, *record.Record, func(string) error) (string, error),
) step {
	return func(ctx context.Context, _ *Case, rec *record.Record, emit Sink) (*record.Record, error) {
		text, err := fn(r.backend, ctx, rec, func(chunk string) error {
			emit(Event{Type: EventChunk, Stage: stage, Text: chunk})
			return nil
		})
		if err != nil {
			return nil, err
		}

		next := rec.Clone()
		if err := next.Set(field, text); err != nil {
			return nil, err
		}
		return next, nil
	}
}

// uploadField names the extraction field for a document role. Prior-art
// files are numbered from 1 in the order they are listed.
func uploadField(role documents.Role, priorArt *int) (string, bool) {
	switch role {
	case documents.RolePatentApplication:
		return backend.FieldPatentApplication, true
	case documents.RoleOfficeAction:
		return backend.FieldOfficeAction, true
	case documents.RoleRecentClaims:
		return backend.FieldRecentClaims, true
	case documents.RolePriorArt:
		*priorArt++
		return backend.PriorArtField(*priorArt), true
	}
	return "", false
}
