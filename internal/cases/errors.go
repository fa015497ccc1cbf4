package cases

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/patentbot/internal/documents"
)

// Domain errors for case operations.
var (
	ErrNotFound        = errors.New("case not found")
	ErrDuplicate       = errors.New("case already exists")
	ErrMissingDocument = errors.New("missing required document")
	ErrInvalidMode     = errors.New("invalid case mode")
	ErrRunInProgress   = errors.New("case run already in progress")
	ErrStepFailed      = errors.New("pipeline step failed")
)

// MapHTTPStatus maps case domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrRunInProgress) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrMissingDocument) || errors.Is(err, ErrInvalidMode) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrStepFailed) {
		return http.StatusBadGateway
	}
	return documents.MapHTTPStatus(err)
}
