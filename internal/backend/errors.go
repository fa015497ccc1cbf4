package backend

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/JaimeStill/patentbot/pkg/retry"
)

var (
	// ErrMalformedResponse indicates a success response whose body is not a case record.
	ErrMalformedResponse = errors.New("malformed service response")
	// ErrAttemptTimeout indicates one attempt ran past the per-call timeout
	// while the caller was still waiting.
	ErrAttemptTimeout = errors.New("attempt timed out")
)

// StatusError is a non-success response from a processing step.
type StatusError struct {
	Step       Step
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: service returned %d", e.Step, e.StatusCode)
	}
	return fmt.Sprintf("%s: service returned %d: %s", e.Step, e.StatusCode, e.Body)
}

// Transient reports whether the status may succeed on another attempt.
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsTransient classifies errors worth retrying: network failures, attempt
// timeouts, 429, and 5xx. Cancellation and malformed responses are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAttemptTimeout) {
		return true
	}
	if retry.IsContextError(err) {
		return false
	}

	var status *StatusError
	if errors.As(err, &status) {
		return status.Transient()
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
