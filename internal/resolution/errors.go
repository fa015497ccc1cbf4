package resolution

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/patentbot/internal/record"
)

// Domain errors for resolution operations.
var (
	ErrNotFound           = errors.New("session not found")
	ErrCaseNotFound       = errors.New("case not found")
	ErrNoClaims           = errors.New("case record has no claim responses")
	ErrCaseNotReady       = errors.New("case has not completed rejection responses")
	ErrIncompleteRecord   = errors.New("case record cannot be resolved")
	ErrInvalidDisposition = errors.New("invalid disposition")
	ErrNotStaged          = errors.New("disposition was not staged")
	ErrStaleCursor        = errors.New("claim cursor does not match session")
	ErrInvalidState       = errors.New("operation not allowed in current state")
	ErrForbidden          = errors.New("session belongs to another operator")
	ErrDraftFailed        = errors.New("draft generation failed")
)

// MapHTTPStatus maps resolution domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrCaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidDisposition), errors.Is(err, ErrNoClaims):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotStaged),
		errors.Is(err, ErrStaleCursor),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrCaseNotReady):
		return http.StatusConflict
	case errors.Is(err, ErrIncompleteRecord),
		errors.Is(err, record.ErrClaimNotFound),
		errors.Is(err, record.ErrMalformedField):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrDraftFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
