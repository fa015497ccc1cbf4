package resolution

import (
	"fmt"

	"github.com/JaimeStill/patentbot/internal/record"
)

// Action identifies an event applied to a session.
type Action string

const (
	ActionSelect  Action = "select"
	ActionConfirm Action = "confirm"
	ActionDrafted Action = "drafted"
)

// Event is an input to the session state machine.
type Event struct {
	Action Action
	Cursor int
	Choice Disposition
	Note   string
	Draft  *record.Record
}

// transition handles an event in one state. It returns the next state and,
// when the event changes the case record, the new record. The session is
// only modified once every check has passed.
type transition func(s *Session, rec *record.Record, ev Event) (State, *record.Record, error)

var transitions = map[State]transition{
	StateAwaitingChoice: awaitingChoice,
	StateAllResolved:    allResolved,
	StateDraftGenerated: draftGenerated,
}

// Apply runs ev through the transition for the session's current state and
// records the next state. The returned record is nil when rec is unchanged;
// rec itself is never modified.
func Apply(s *Session, rec *record.Record, ev Event) (*record.Record, error) {
	handle, ok := transitions[s.State]
	if !ok {
		return nil, fmt.Errorf("%w: unknown state %q", ErrInvalidState, s.State)
	}

	next, updated, err := handle(s, rec, ev)
	if err != nil {
		return nil, err
	}

	s.State = next
	return updated, nil
}

func awaitingChoice(s *Session, rec *record.Record, ev Event) (State, *record.Record, error) {
	switch ev.Action {
	case ActionSelect:
		if err := checkChoice(s, ev); err != nil {
			return "", nil, err
		}
		choice := ev.Choice
		s.Staged = &choice
		return StateAwaitingChoice, nil, nil

	case ActionConfirm:
		if err := checkChoice(s, ev); err != nil {
			return "", nil, err
		}
		if s.Staged == nil || *s.Staged != ev.Choice {
			return "", nil, fmt.Errorf("%w: %s", ErrNotStaged, ev.Choice)
		}

		claimID, _ := s.CurrentClaim()
		chosen, ok := rec.CandidateText(claimID, string(ev.Choice))
		if !ok {
			chosen = ev.Note
		}

		updated := rec.Clone()
		if err := updated.SetDisposition(claimID, string(ev.Choice), chosen); err != nil {
			return "", nil, fmt.Errorf("record disposition for claim %s: %w", claimID, err)
		}

		if s.YourChoices == nil {
			s.YourChoices = make(map[string]Disposition)
		}
		s.YourChoices[claimID] = ev.Choice
		s.ClaimIteration++
		s.Staged = nil

		if s.ClaimIteration == len(s.ClaimsList) {
			return StateAllResolved, updated, nil
		}
		return StateAwaitingChoice, updated, nil
	}

	return "", nil, fmt.Errorf("%w: %s while awaiting choice", ErrInvalidState, ev.Action)
}

func allResolved(s *Session, _ *record.Record, ev Event) (State, *record.Record, error) {
	switch ev.Action {
	case ActionDrafted:
		if ev.Draft == nil {
			return "", nil, fmt.Errorf("%w: drafted event without record", ErrInvalidState)
		}
		return StateDraftGenerated, ev.Draft.Clone(), nil
	case ActionSelect, ActionConfirm:
		return "", nil, rejectChoice(s, ev)
	}
	return "", nil, fmt.Errorf("%w: %s when all claims are resolved", ErrInvalidState, ev.Action)
}

func draftGenerated(s *Session, _ *record.Record, ev Event) (State, *record.Record, error) {
	if ev.Action == ActionSelect || ev.Action == ActionConfirm {
		return "", nil, rejectChoice(s, ev)
	}
	return "", nil, fmt.Errorf("%w: %s after draft generation", ErrInvalidState, ev.Action)
}

func checkChoice(s *Session, ev Event) error {
	if ev.Cursor != s.ClaimIteration {
		return fmt.Errorf("%w: got %d, session at %d", ErrStaleCursor, ev.Cursor, s.ClaimIteration)
	}
	if !ev.Choice.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDisposition, ev.Choice)
	}
	return nil
}

// A choice for an already confirmed claim is stale; anything else arriving
// after the last claim is out of place.
func rejectChoice(s *Session, ev Event) error {
	if ev.Cursor < s.ClaimIteration {
		return fmt.Errorf("%w: claim %d already confirmed", ErrStaleCursor, ev.Cursor)
	}
	return fmt.Errorf("%w: no claim awaiting a choice", ErrInvalidState)
}
