package resolution

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/patentbot/internal/record"
	"github.com/JaimeStill/patentbot/pkg/query"
	"github.com/JaimeStill/patentbot/pkg/repository"
)

// Case stage and status written once the draft is stored.
const (
	draftStage     = "draft_generated"
	completeStatus = "complete"
)

var errDuplicate = errors.New("session already exists")

type store struct {
	db *sql.DB
}

// NewStore creates a PostgreSQL-backed session store.
func NewStore(db *sql.DB) Store {
	return &store{db: db}
}

func (st *store) Create(
	ctx context.Context,
	caseID uuid.UUID,
	build func(CaseSnapshot) (*Session, error),
) (*Session, bool, error) {
	type result struct {
		session *Session
		created bool
	}

	res, err := repository.WithTx(ctx, st.db, func(tx *sql.Tx) (result, error) {
		snap, err := lockCase(ctx, tx, caseID)
		if err != nil {
			return result{}, err
		}

		existing, err := repository.QueryOne(
			ctx, tx,
			fmt.Sprintf("SELECT %s FROM %s WHERE s.case_id = $1", projection.Columns(), projection.Table()),
			[]any{caseID},
			scanSession,
		)
		if err == nil {
			return result{session: &existing}, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return result{}, err
		}

		s, err := build(snap)
		if err != nil {
			return result{}, err
		}

		claims, err := jsonValue(s.ClaimsList)
		if err != nil {
			return result{}, err
		}
		choices, err := jsonValue(s.YourChoices)
		if err != nil {
			return result{}, err
		}

		q := `
			INSERT INTO resolution_sessions(id, case_id, operator, claims_list, claim_iteration, your_choices, state, staged)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, case_id, operator, claims_list, claim_iteration, your_choices, state, staged, created_at, updated_at`

		created, err := repository.QueryOne(ctx, tx, q, []any{
			s.ID,
			s.CaseID,
			s.Operator,
			claims,
			s.ClaimIteration,
			choices,
			string(s.State),
			stagedValue(s.Staged),
		}, scanSession)
		if err != nil {
			return result{}, err
		}
		return result{session: &created, created: true}, nil
	})
	if err != nil {
		return nil, false, repository.MapError(err, ErrCaseNotFound, errDuplicate)
	}

	return res.session, res.created, nil
}

func (st *store) Load(ctx context.Context, id uuid.UUID) (*Session, *record.Record, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	s, err := repository.QueryOne(ctx, st.db, q, args, scanSession)
	if err != nil {
		return nil, nil, repository.MapError(err, ErrNotFound, errDuplicate)
	}

	rec := &record.Record{}
	if err := st.db.QueryRowContext(ctx, "SELECT record FROM cases WHERE id = $1", s.CaseID).Scan(rec); err != nil {
		return nil, nil, repository.MapError(err, ErrCaseNotFound, errDuplicate)
	}

	return &s, rec, nil
}

func (st *store) Update(
	ctx context.Context,
	id uuid.UUID,
	fn func(*Session, *record.Record) (*record.Record, error),
) (*Session, *record.Record, error) {
	type result struct {
		session *Session
		record  *record.Record
	}

	res, err := repository.WithTx(ctx, st.db, func(tx *sql.Tx) (result, error) {
		q, args := query.NewBuilder(projection).BuildSingle("ID", id)

		s, err := repository.QueryOne(ctx, tx, q+" FOR UPDATE", args, scanSession)
		if err != nil {
			return result{}, repository.MapError(err, ErrNotFound, errDuplicate)
		}

		snap, err := lockCase(ctx, tx, s.CaseID)
		if err != nil {
			return result{}, err
		}
		rec := snap.Record

		updated, err := fn(&s, rec)
		if err != nil {
			return result{}, err
		}

		if updated != nil {
			if err := saveRecord(ctx, tx, s.CaseID, updated, s.State == StateDraftGenerated); err != nil {
				return result{}, err
			}
			rec = updated
		}

		choices, err := jsonValue(s.YourChoices)
		if err != nil {
			return result{}, err
		}

		err = tx.QueryRowContext(ctx, `
			UPDATE resolution_sessions
			SET claim_iteration = $2, your_choices = $3, state = $4, staged = $5, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at`,
			s.ID,
			s.ClaimIteration,
			choices,
			string(s.State),
			stagedValue(s.Staged),
		).Scan(&s.UpdatedAt)
		if err != nil {
			return result{}, fmt.Errorf("update session: %w", err)
		}

		return result{session: &s, record: rec}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	return res.session, res.record, nil
}

func lockCase(ctx context.Context, tx *sql.Tx, caseID uuid.UUID) (CaseSnapshot, error) {
	snap := CaseSnapshot{Record: &record.Record{}}

	err := tx.QueryRowContext(
		ctx,
		"SELECT id, stage, record FROM cases WHERE id = $1 FOR UPDATE",
		caseID,
	).Scan(&snap.ID, &snap.Stage, snap.Record)
	if err != nil {
		return snap, repository.MapError(err, ErrCaseNotFound, errDuplicate)
	}
	return snap, nil
}

func saveRecord(ctx context.Context, tx *sql.Tx, caseID uuid.UUID, rec *record.Record, drafted bool) error {
	if drafted {
		return repository.ExecExpectOne(ctx, tx, `
			UPDATE cases SET record = $2, stage = $3, status = $4, last_error = NULL, updated_at = NOW()
			WHERE id = $1`,
			caseID, rec, draftStage, completeStatus,
		)
	}

	return repository.ExecExpectOne(ctx, tx,
		"UPDATE cases SET record = $2, updated_at = NOW() WHERE id = $1",
		caseID, rec,
	)
}
