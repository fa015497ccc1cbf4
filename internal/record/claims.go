package record

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Candidate is one candidate response for a claim, keyed by disposition.
type Candidate struct {
	Disposition string `json:"disposition"`
	Text        string `json:"text"`
}

// Rejection is the rejection entry for one claim in rejected_claims_list.
type Rejection struct {
	ClaimID        string `json:"claim_id"`
	OriginalClaim  string `json:"original_claim"`
	RejectedFor    string `json:"rejected_for"`
	ResponseType   string `json:"response_type,omitempty"`
	ChosenResponse string `json:"chosen_response,omitempty"`
}

// References returns the reference identifiers. A missing or null field is
// an empty list.
func (r *Record) References() ([]string, error) {
	res := r.field(FieldReferences)
	if text(res) == "" {
		return []string{}, nil
	}
	if !res.IsArray() {
		return nil, fmt.Errorf("%w: %s is not a list", ErrMalformedField, FieldReferences)
	}

	refs := []string{}
	res.ForEach(func(_, item gjson.Result) bool {
		refs = append(refs, text(item))
		return true
	})
	return refs, nil
}

// ClaimIDs returns the claim ids in the key order of responses.
func (r *Record) ClaimIDs() ([]string, error) {
	responses, err := r.responses()
	if err != nil {
		return nil, err
	}

	var ids []string
	responses.ForEach(func(key, _ gjson.Result) bool {
		ids = append(ids, key.String())
		return true
	})
	if len(ids) == 0 {
		return nil, ErrNoResponses
	}
	return ids, nil
}

// Candidates returns the candidate responses for claimID in record order.
func (r *Record) Candidates(claimID string) ([]Candidate, error) {
	responses, err := r.responses()
	if err != nil {
		return nil, err
	}

	byClaim := responses.Get(gjson.Escape(claimID))
	if text(byClaim) == "" {
		return nil, fmt.Errorf("%w: responses.%s missing", ErrMalformedField, claimID)
	}
	if !byClaim.IsObject() {
		return nil, fmt.Errorf("%w: responses.%s is not an object", ErrMalformedField, claimID)
	}

	var candidates []Candidate
	byClaim.ForEach(func(key, value gjson.Result) bool {
		candidates = append(candidates, Candidate{
			Disposition: key.String(),
			Text:        text(value),
		})
		return true
	})
	return candidates, nil
}

// CandidateText returns the candidate for claimID under disposition.
func (r *Record) CandidateText(claimID, disposition string) (string, bool) {
	candidates, err := r.Candidates(claimID)
	if err != nil {
		return "", false
	}
	for _, c := range candidates {
		if c.Disposition == disposition {
			return c.Text, true
		}
	}
	return "", false
}

// RejectedClaim returns the rejection entry for claimID.
func (r *Record) RejectedClaim(claimID string) (*Rejection, error) {
	_, claim, err := r.locateRejection(claimID)
	if err != nil {
		return nil, err
	}

	return &Rejection{
		ClaimID:        claimID,
		OriginalClaim:  text(claim.Get("original_claim")),
		RejectedFor:    text(claim.Get("rejected_for")),
		ResponseType:   text(claim.Get("response_type")),
		ChosenResponse: text(claim.Get("chosen_response")),
	}, nil
}

// SetDisposition writes response_type and chosen_response onto the rejection
// entry for claimID. Every other byte of the record is left as it was.
func (r *Record) SetDisposition(claimID, disposition, chosen string) error {
	i, _, err := r.locateRejection(claimID)
	if err != nil {
		return err
	}

	base := FieldRejectedClaimsList + "." + strconv.Itoa(i) + "." + gjson.Escape(claimID)

	out, err := sjson.SetBytes(r.bytes(), base+".response_type", disposition)
	if err != nil {
		return fmt.Errorf("set response_type for %s: %w", claimID, err)
	}
	out, err = sjson.SetBytes(out, base+".chosen_response", chosen)
	if err != nil {
		return fmt.Errorf("set chosen_response for %s: %w", claimID, err)
	}

	r.raw = out
	return nil
}

// locateRejection finds the list index and body of the entry for claimID.
// Entries that are not objects are skipped.
func (r *Record) locateRejection(claimID string) (int, gjson.Result, error) {
	list := r.field(FieldRejectedClaimsList)
	if text(list) == "" {
		return 0, gjson.Result{}, fmt.Errorf("%w: %s", ErrClaimNotFound, claimID)
	}
	if !list.IsArray() {
		return 0, gjson.Result{}, fmt.Errorf("%w: %s is not a list", ErrMalformedField, FieldRejectedClaimsList)
	}

	for i, entry := range list.Array() {
		if !entry.IsObject() {
			continue
		}
		claim := entry.Get(gjson.Escape(claimID))
		if !claim.Exists() {
			continue
		}
		if !claim.IsObject() {
			return 0, gjson.Result{}, fmt.Errorf("%w: claim %s is not an object", ErrMalformedField, claimID)
		}
		return i, claim, nil
	}

	return 0, gjson.Result{}, fmt.Errorf("%w: %s", ErrClaimNotFound, claimID)
}

func (r *Record) responses() (gjson.Result, error) {
	res := r.field(FieldResponses)
	if text(res) == "" {
		return res, ErrNoResponses
	}
	if !res.IsObject() {
		return res, fmt.Errorf("%w: %s is not an object", ErrMalformedField, FieldResponses)
	}
	return res, nil
}
