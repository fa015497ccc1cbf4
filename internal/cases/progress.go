package cases

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// EventType classifies a progress event.
type EventType string

const (
	EventStageStarted    EventType = "stage_started"
	EventStageCompleted  EventType = "stage_completed"
	EventReferencesFound EventType = "references_found"
	EventNoReferences    EventType = "no_references"
	EventChunk           EventType = "chunk"
	EventFailed          EventType = "failed"
	EventCompleted       EventType = "completed"
)

// Event is one entry of a run's live progress.
type Event struct {
	CaseID     uuid.UUID `json:"case_id"`
	Type       EventType `json:"type"`
	Stage      Stage     `json:"stage,omitempty"`
	Message    string    `json:"message,omitempty"`
	Text       string    `json:"text,omitempty"`
	References []string  `json:"references,omitempty"`
	Time       time.Time `json:"time"`
}

// Sink receives progress events as a run emits them.
type Sink func(Event)

// Progress keeps the events of the latest run per case for a limited time.
type Progress struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
}

// NewProgress creates a Progress whose logs expire ttl after their last event.
func NewProgress(ttl time.Duration) *Progress {
	return &Progress{
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Reset clears the log of a case at the start of a run.
func (p *Progress) Reset(caseID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.Set(caseID.String(), []Event{}, p.ttl)
}

// Append adds an event to the log of a case.
func (p *Progress) Append(caseID uuid.UUID, ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var events []Event
	if v, ok := p.cache.Get(caseID.String()); ok {
		events = v.([]Event)
	}
	p.cache.Set(caseID.String(), append(events, ev), p.ttl)
}

// Events returns a copy of the log of a case, or nil when none is held.
func (p *Progress) Events(caseID uuid.UUID) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, ok := p.cache.Get(caseID.String())
	if !ok {
		return nil
	}
	return slices.Clone(v.([]Event))
}

// Forget drops the log of a case.
func (p *Progress) Forget(caseID uuid.UUID) {
	p.cache.Delete(caseID.String())
}
