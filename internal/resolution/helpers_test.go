package resolution_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/patentbot/internal/record"
	"github.com/JaimeStill/patentbot/internal/resolution"
)

const threeClaims = `{
  "references": [],
  "rejected_claims_list": [
    {"1": {"original_claim": "A bracket.", "rejected_for": "102 over Smith"}},
    {"2": {"original_claim": "The bracket of claim 1, made of steel.", "rejected_for": "103 over Smith and Jones"}},
    {"3": {"original_claim": "The bracket of claim 2, painted.", "rejected_for": "112(b) indefinite"}}
  ],
  "responses": {
    "1": {"amend": "A bracket having a hinge.", "dispute": "Smith shows no bracket."},
    "2": {"amend": "Made of stainless steel.", "dispute": "Jones teaches away from steel."},
    "3": {"amend": "Painted with enamel.", "dispute": "Painted is definite."}
  },
  "knowledge": {"source": "kb"}
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore keeps one case and its sessions in memory. Update works on
// copies and commits only when fn succeeds.
type memStore struct {
	mu       sync.Mutex
	caseID   uuid.UUID
	stage    string
	record   []byte
	sessions map[uuid.UUID]resolution.Session
}

func newMemStore(t *testing.T, stage, data string) *memStore {
	t.Helper()
	rec, err := record.Parse([]byte(data))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return &memStore{
		caseID:   uuid.New(),
		stage:    stage,
		record:   b,
		sessions: make(map[uuid.UUID]resolution.Session),
	}
}

func (m *memStore) recordBytes() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.record)
}

func (m *memStore) current(t *testing.T) *record.Record {
	t.Helper()
	rec, err := record.Parse([]byte(m.recordBytes()))
	if err != nil {
		t.Fatalf("parse stored record: %v", err)
	}
	return rec
}

func (m *memStore) sessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *memStore) Create(
	_ context.Context,
	caseID uuid.UUID,
	build func(resolution.CaseSnapshot) (*resolution.Session, error),
) (*resolution.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if caseID != m.caseID {
		return nil, false, resolution.ErrCaseNotFound
	}
	for _, s := range m.sessions {
		if s.CaseID == caseID {
			return copySession(s), false, nil
		}
	}

	rec, err := record.Parse(m.record)
	if err != nil {
		return nil, false, err
	}
	s, err := build(resolution.CaseSnapshot{ID: caseID, Stage: m.stage, Record: rec})
	if err != nil {
		return nil, false, err
	}
	m.sessions[s.ID] = *copySession(*s)
	return copySession(*s), true, nil
}

func (m *memStore) Load(_ context.Context, id uuid.UUID) (*resolution.Session, *record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, nil, resolution.ErrNotFound
	}
	rec, err := record.Parse(m.record)
	if err != nil {
		return nil, nil, err
	}
	return copySession(s), rec, nil
}

func (m *memStore) Update(
	_ context.Context,
	id uuid.UUID,
	fn func(*resolution.Session, *record.Record) (*record.Record, error),
) (*resolution.Session, *record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[id]
	if !ok {
		return nil, nil, resolution.ErrNotFound
	}
	s := copySession(stored)
	rec, err := record.Parse(m.record)
	if err != nil {
		return nil, nil, err
	}

	updated, err := fn(s, rec)
	if err != nil {
		return nil, nil, err
	}

	if updated != nil {
		b, err := json.Marshal(updated)
		if err != nil {
			return nil, nil, err
		}
		m.record = b
		rec = updated
	}
	m.sessions[id] = *copySession(*s)
	return s, rec, nil
}

func copySession(s resolution.Session) *resolution.Session {
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	var c resolution.Session
	if err := json.Unmarshal(b, &c); err != nil {
		panic(err)
	}
	return &c
}

// mockDrafter appends a draft field to the record it receives.
type mockDrafter struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, rec *record.Record) (*record.Record, error)
}

func (d *mockDrafter) GenerateDraft(ctx context.Context, rec *record.Record) (*record.Record, error) {
	d.mu.Lock()
	d.calls++
	fn := d.fn
	d.mu.Unlock()

	if fn != nil {
		return fn(ctx, rec)
	}
	out := rec.Clone()
	if err := out.Set(record.FieldDraft, "Response to office action"); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *mockDrafter) setFn(fn func(context.Context, *record.Record) (*record.Record, error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fn = fn
}

func (d *mockDrafter) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}
