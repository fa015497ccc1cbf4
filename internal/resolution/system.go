package resolution

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/patentbot/internal/record"
	"github.com/JaimeStill/patentbot/pkg/auth"
)

// ReadyStage is the case stage at which claim responses exist and a session
// may start.
const ReadyStage = "rejections_responded"

// System defines the public contract for the claim resolution workflow.
type System interface {
	Handler() *Handler

	Start(ctx context.Context, caseID uuid.UUID) (*Session, error)
	Present(ctx context.Context, id uuid.UUID) (*Presentation, error)
	Select(ctx context.Context, id uuid.UUID, cmd SelectCommand) (*Presentation, error)
	Confirm(ctx context.Context, id uuid.UUID, cmd ConfirmCommand) (*Presentation, error)
	Finalize(ctx context.Context, id uuid.UUID) (*Presentation, error)
}

// Store persists sessions together with the case record they annotate.
type Store interface {
	// Create returns the existing session for the case, or one built from
	// the locked case snapshot. The bool reports whether it was created.
	Create(ctx context.Context, caseID uuid.UUID, build func(CaseSnapshot) (*Session, error)) (*Session, bool, error)

	// Load reads a session and its case record.
	Load(ctx context.Context, id uuid.UUID) (*Session, *record.Record, error)

	// Update locks the session and its case, applies fn, and commits the
	// session plus the record fn returns (nil leaves the record untouched)
	// in one transaction. Nothing is written when fn fails.
	Update(ctx context.Context, id uuid.UUID, fn func(*Session, *record.Record) (*record.Record, error)) (*Session, *record.Record, error)
}

// Drafter generates the final draft from a fully annotated record.
type Drafter interface {
	GenerateDraft(ctx context.Context, rec *record.Record) (*record.Record, error)
}

type controller struct {
	store   Store
	drafter Drafter
	logger  *slog.Logger
	locks   *keyedMutex
}

// New creates the resolution controller implementing the System interface.
func New(store Store, drafter Drafter, logger *slog.Logger) System {
	return &controller{
		store:   store,
		drafter: drafter,
		logger:  logger.With("system", "resolution"),
		locks:   newKeyedMutex(),
	}
}

func (c *controller) Handler() *Handler {
	return NewHandler(c, c.logger)
}

func (c *controller) Start(ctx context.Context, caseID uuid.UUID) (*Session, error) {
	operator := auth.Operator(ctx)

	s, created, err := c.store.Create(ctx, caseID, func(snap CaseSnapshot) (*Session, error) {
		return newSession(snap, operator)
	})
	if err != nil {
		return nil, err
	}

	if err := authorize(ctx, s); err != nil {
		return nil, err
	}

	if created {
		c.logger.Info("session started", "id", s.ID, "case_id", caseID, "claims", len(s.ClaimsList))
	}
	return s, nil
}

func (c *controller) Present(ctx context.Context, id uuid.UUID) (*Presentation, error) {
	s, rec, err := c.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s); err != nil {
		return nil, err
	}
	return present(s, rec)
}

func (c *controller) Select(ctx context.Context, id uuid.UUID, cmd SelectCommand) (*Presentation, error) {
	return c.apply(ctx, id, Event{
		Action: ActionSelect,
		Cursor: cmd.Cursor,
		Choice: cmd.Choice,
	})
}

func (c *controller) Confirm(ctx context.Context, id uuid.UUID, cmd ConfirmCommand) (*Presentation, error) {
	p, err := c.apply(ctx, id, Event{
		Action: ActionConfirm,
		Cursor: cmd.Cursor,
		Choice: cmd.Choice,
		Note:   cmd.Note,
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info(
		"claim confirmed",
		"id", id,
		"choice", cmd.Choice,
		"claim_iteration", p.ClaimIteration,
	)

	if p.State == StateAllResolved {
		return c.Finalize(ctx, id)
	}
	return p, nil
}

func (c *controller) Finalize(ctx context.Context, id uuid.UUID) (*Presentation, error) {
	unlock := c.locks.Lock(id)
	defer unlock()

	s, rec, err := c.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s); err != nil {
		return nil, err
	}

	switch s.State {
	case StateDraftGenerated:
		return present(s, rec)
	case StateAwaitingChoice:
		return nil, fmt.Errorf("%w: %d of %d claims resolved", ErrInvalidState, s.ClaimIteration, len(s.ClaimsList))
	}

	drafted, err := c.drafter.GenerateDraft(ctx, rec.Clone())
	if err != nil {
		c.logger.Error("draft generation failed", "id", id, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrDraftFailed, err)
	}

	p, err := c.apply(ctx, id, Event{Action: ActionDrafted, Draft: drafted})
	if err != nil {
		return nil, err
	}

	c.logger.Info("draft generated", "id", id, "case_id", s.CaseID)
	return p, nil
}

func (c *controller) apply(ctx context.Context, id uuid.UUID, ev Event) (*Presentation, error) {
	s, rec, err := c.store.Update(ctx, id, func(s *Session, rec *record.Record) (*record.Record, error) {
		if err := authorize(ctx, s); err != nil {
			return nil, err
		}
		return Apply(s, rec, ev)
	})
	if err != nil {
		return nil, err
	}
	return present(s, rec)
}

func newSession(snap CaseSnapshot, operator string) (*Session, error) {
	if snap.Stage != ReadyStage {
		return nil, fmt.Errorf("%w: stage %s", ErrCaseNotReady, snap.Stage)
	}

	claims, err := snap.Record.ClaimIDs()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoClaims, err)
	}

	// every claim must be presentable before the cursor can walk it
	for _, id := range claims {
		if _, err := snap.Record.RejectedClaim(id); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIncompleteRecord, err)
		}
		if _, err := snap.Record.Candidates(id); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIncompleteRecord, err)
		}
	}

	return &Session{
		ID:          uuid.New(),
		CaseID:      snap.ID,
		Operator:    operator,
		ClaimsList:  claims,
		YourChoices: make(map[string]Disposition),
		State:       StateAwaitingChoice,
	}, nil
}

func present(s *Session, rec *record.Record) (*Presentation, error) {
	p := &Presentation{
		SessionID:      s.ID,
		CaseID:         s.CaseID,
		State:          s.State,
		ClaimIteration: s.ClaimIteration,
		TotalClaims:    len(s.ClaimsList),
		Staged:         s.Staged,
		YourChoices:    s.YourChoices,
	}

	switch s.State {
	case StateAwaitingChoice:
		claimID, ok := s.CurrentClaim()
		if !ok {
			return nil, fmt.Errorf("%w: cursor %d out of range", ErrInvalidState, s.ClaimIteration)
		}

		rejection, err := rec.RejectedClaim(claimID)
		if err != nil {
			return nil, err
		}
		candidates, err := rec.Candidates(claimID)
		if err != nil {
			return nil, err
		}

		p.ClaimID = claimID
		p.OriginalClaim = rejection.OriginalClaim
		p.RejectedFor = rejection.RejectedFor
		p.Candidates = candidates
		p.Dispositions = Dispositions()

	case StateDraftGenerated:
		p.Draft = rec.Draft()
	}

	return p, nil
}

func authorize(ctx context.Context, s *Session) error {
	if op := auth.Operator(ctx); op != s.Operator {
		return fmt.Errorf("%w: %s", ErrForbidden, s.ID)
	}
	return nil
}
