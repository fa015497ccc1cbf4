// Package resolution implements the claim resolution workflow: an operator
// walks the rejected claims of a case one at a time, confirms a disposition
// for each, and the completed record is handed to draft generation.
package resolution

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/patentbot/internal/record"
)

// State is the persisted workflow state tag.
type State string

const (
	StateAwaitingChoice State = "awaiting_choice"
	StateAllResolved    State = "all_resolved"
	StateDraftGenerated State = "draft_generated"
)

// Disposition is the operator's chosen way of addressing a claim rejection.
type Disposition string

const (
	Amend   Disposition = "amend"
	Dispute Disposition = "dispute"
	Combine Disposition = "combine"
	Remove  Disposition = "remove"
)

// Dispositions lists the choices offered for every claim, in display order.
func Dispositions() []Disposition {
	return []Disposition{Amend, Dispute, Combine, Remove}
}

// Valid reports whether d is one of the offered dispositions.
func (d Disposition) Valid() bool {
	return slices.Contains(Dispositions(), d)
}

// Session is one operator's resolution pass over one case.
// ClaimsList is fixed at creation; ClaimIteration only moves forward.
type Session struct {
	ID             uuid.UUID              `json:"id"`
	CaseID         uuid.UUID              `json:"case_id"`
	Operator       string                 `json:"operator"`
	ClaimsList     []string               `json:"claims_list"`
	ClaimIteration int                    `json:"claim_iteration"`
	YourChoices    map[string]Disposition `json:"your_choices"`
	State          State                  `json:"state"`
	Staged         *Disposition           `json:"staged"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// CurrentClaim returns the claim id under the cursor.
func (s *Session) CurrentClaim() (string, bool) {
	if s.ClaimIteration < 0 || s.ClaimIteration >= len(s.ClaimsList) {
		return "", false
	}
	return s.ClaimsList[s.ClaimIteration], true
}

func (s *Session) clone() *Session {
	c := *s
	c.ClaimsList = slices.Clone(s.ClaimsList)
	c.YourChoices = maps.Clone(s.YourChoices)
	if s.Staged != nil {
		staged := *s.Staged
		c.Staged = &staged
	}
	return &c
}

// CaseSnapshot is the state of the owning case a session is started from.
type CaseSnapshot struct {
	ID     uuid.UUID
	Stage  string
	Record *record.Record
}

// Presentation is what the operator sees for the current state: the claim
// under the cursor with its candidates, or the draft once generated.
type Presentation struct {
	SessionID      uuid.UUID              `json:"session_id"`
	CaseID         uuid.UUID              `json:"case_id"`
	State          State                  `json:"state"`
	ClaimIteration int                    `json:"claim_iteration"`
	TotalClaims    int                    `json:"total_claims"`
	ClaimID        string                 `json:"claim_id,omitempty"`
	OriginalClaim  string                 `json:"original_claim,omitempty"`
	RejectedFor    string                 `json:"rejected_for,omitempty"`
	Candidates     []record.Candidate     `json:"candidates,omitempty"`
	Dispositions   []Disposition          `json:"dispositions,omitempty"`
	Staged         *Disposition           `json:"staged"`
	YourChoices    map[string]Disposition `json:"your_choices"`
	Draft          string                 `json:"draft,omitempty"`
}

// SelectCommand stages a disposition for the claim at Cursor.
type SelectCommand struct {
	Cursor int         `json:"claim_iteration"`
	Choice Disposition `json:"choice"`
}

// ConfirmCommand commits the staged disposition for the claim at Cursor.
// Note is used as the chosen response when the record has no candidate text
// for the disposition.
type ConfirmCommand struct {
	Cursor int         `json:"claim_iteration"`
	Choice Disposition `json:"choice"`
	Note   string      `json:"note,omitempty"`
}
