package cases_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/patentbot/internal/backend"
	"github.com/JaimeStill/patentbot/internal/cases"
	"github.com/JaimeStill/patentbot/internal/documents"
	"github.com/JaimeStill/patentbot/internal/record"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustParse(s string) *record.Record {
	rec, err := record.Parse([]byte(s))
	if err != nil {
		panic(err)
	}
	return rec
}

// memStore keeps cases in memory and stores records as bytes.
type memStore struct {
	mu    sync.Mutex
	cases map[uuid.UUID]*cases.Case
}

func newMemStore(cs ...cases.Case) *memStore {
	s := &memStore{cases: make(map[uuid.UUID]*cases.Case)}
	for _, c := range cs {
		s.cases[c.ID] = &c
	}
	return s
}

func (s *memStore) get(id uuid.UUID) (*cases.Case, error) {
	c, ok := s.cases[id]
	if !ok {
		return nil, cases.ErrNotFound
	}
	cp := *c
	if c.Record != nil {
		cp.Record = c.Record.Clone()
	}
	return &cp, nil
}

func (s *memStore) current(id uuid.UUID) *cases.Case {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, _ := s.get(id)
	return c
}

func (s *memStore) Find(_ context.Context, id uuid.UUID) (*cases.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *memStore) Begin(_ context.Context, id uuid.UUID) (*cases.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, cases.ErrNotFound
	}
	c.Status = cases.StatusRunning
	c.LastError = nil
	return s.get(id)
}

func (s *memStore) Advance(_ context.Context, id uuid.UUID, stage cases.Stage, rec *record.Record, status cases.Status) (*cases.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, cases.ErrNotFound
	}
	c.Stage = stage
	c.Record = rec.Clone()
	c.Status = status
	return s.get(id)
}

func (s *memStore) Fail(_ context.Context, id uuid.UUID, cause error) (*cases.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, cases.ErrNotFound
	}
	msg := cause.Error()
	c.Status = cases.StatusFailed
	c.LastError = &msg
	return s.get(id)
}

type memDocs struct {
	docs []documents.Document
	data map[uuid.UUID][]byte
}

func (m *memDocs) add(caseID uuid.UUID, role documents.Role, position int, name, content string) {
	id := uuid.New()
	m.docs = append(m.docs, documents.Document{
		ID:          id,
		CaseID:      caseID,
		Role:        role,
		Position:    position,
		Filename:    name,
		ContentType: "application/pdf",
	})
	if m.data == nil {
		m.data = make(map[uuid.UUID][]byte)
	}
	m.data[id] = []byte(content)
}

func (m *memDocs) ListByCase(_ context.Context, caseID uuid.UUID) ([]documents.Document, error) {
	var out []documents.Document
	for _, d := range m.docs {
		if d.CaseID == caseID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDocs) Read(_ context.Context, doc documents.Document) ([]byte, error) {
	data, ok := m.data[doc.ID]
	if !ok {
		return nil, documents.ErrNotFound
	}
	return data, nil
}

// fakeBackend records the steps it is asked to run. Each step returns the
// input record with a marker field unless its fn is set.
type fakeBackend struct {
	mu    sync.Mutex
	calls []backend.Step

	extractFn    func([]backend.Upload) (*record.Record, error)
	fetchFn      func(*record.Record) (*record.Record, error)
	knowledgeFn  func(*record.Record) (*record.Record, error)
	rejectionsFn func(*record.Record) (*record.Record, error)
	draftFn      func(*record.Record) (*record.Record, error)
	chunks       []string
	streamErr    error
}

func (f *fakeBackend) called(step backend.Step) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, step)
}

func (f *fakeBackend) steps() []backend.Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.Step(nil), f.calls...)
}

func marked(rec *record.Record, key string) (*record.Record, error) {
	next := rec.Clone()
	if err := next.Set(key, true); err != nil {
		return nil, err
	}
	return next, nil
}

func (f *fakeBackend) ExtractText(_ context.Context, uploads []backend.Upload) (*record.Record, error) {
	f.called(backend.StepExtractText)
	if f.extractFn != nil {
		return f.extractFn(uploads)
	}
	return mustParse(`{"references":[]}`), nil
}

func (f *fakeBackend) FetchReferences(_ context.Context, rec *record.Record) (*record.Record, error) {
	f.called(backend.StepFetchReferences)
	if f.fetchFn != nil {
		return f.fetchFn(rec)
	}
	return marked(rec, "fetched")
}

func (f *fakeBackend) RetrieveKnowledgeBase(_ context.Context, rec *record.Record) (*record.Record, error) {
	f.called(backend.StepRetrieveKnowledgeBase)
	if f.knowledgeFn != nil {
		return f.knowledgeFn(rec)
	}
	return marked(rec, "knowledge")
}

func (f *fakeBackend) RespondToRejections(_ context.Context, rec *record.Record) (*record.Record, error) {
	f.called(backend.StepRespondToRejections)
	if f.rejectionsFn != nil {
		return f.rejectionsFn(rec)
	}
	return marked(rec, "responses")
}

func (f *fakeBackend) PlanStrategy(_ context.Context, _ *record.Record, onChunk func(string) error) (string, error) {
	f.called(backend.StepPlanStrategy)
	return f.stream("plan:", onChunk)
}

func (f *fakeBackend) ExecuteStrategy(_ context.Context, _ *record.Record, onChunk func(string) error) (string, error) {
	f.called(backend.StepExecuteStrategy)
	return f.stream("exec:", onChunk)
}

func (f *fakeBackend) stream(prefix string, onChunk func(string) error) (string, error) {
	var text string
	for _, c := range f.chunks {
		if err := onChunk(prefix + c); err != nil {
			return text, err
		}
		text += prefix + c
	}
	return text, f.streamErr
}

func (f *fakeBackend) GenerateDraft(_ context.Context, rec *record.Record) (*record.Record, error) {
	f.called(backend.StepGenerateDraft)
	if f.draftFn != nil {
		return f.draftFn(rec)
	}
	next := rec.Clone()
	return next, next.Set(record.FieldDraft, "draft text")
}

func unavailable(step backend.Step) error {
	return &backend.StatusError{Step: step, StatusCode: 500, Body: "internal error"}
}

func newCase(mode cases.Mode) cases.Case {
	now := time.Now()
	return cases.Case{
		ID:        uuid.New(),
		Title:     fmt.Sprintf("%s case", mode),
		Mode:      mode,
		Stage:     cases.StageUploaded,
		Status:    cases.StatusPending,
		Record:    &record.Record{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

var errBoom = errors.New("boom")
