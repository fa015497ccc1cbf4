package record

import "errors"

var (
	// ErrNotObject indicates the JSON value is not an object.
	ErrNotObject = errors.New("case record must be a JSON object")
	// ErrMalformedField indicates a known field does not have the expected shape.
	ErrMalformedField = errors.New("malformed case record field")
	// ErrClaimNotFound indicates the claim id has no entry in rejected_claims_list.
	ErrClaimNotFound = errors.New("claim not found in rejected claims")
	// ErrNoResponses indicates the record carries no candidate responses.
	ErrNoResponses = errors.New("case record has no responses")
)
