package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// TransientError wraps a failure that is safe to retry: connection failures,
// timeouts, resets. The remote was never confirmed to have rejected the call.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps err as transient.
func NewTransientError(err error) *TransientError {
	return &TransientError{Err: err}
}

// ThrottledError signals remote backpressure (HTTP 202 without a payload).
// It is not a failure of the remote call itself; RetryAfter tells the caller
// how long to hold off before re-issuing the query.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("throttled by remote, retry after %s", e.RetryAfter)
}

// FatalStatusError reports an HTTP status the connector has no handling for.
// It carries the status code and response body for diagnosis and is never
// retried.
type FatalStatusError struct {
	StatusCode int
	Body       string
}

func (e *FatalStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// LockTimeoutError reports that a distributed lock could not be acquired
// within its bounded wait. The enrichment attempt must be retried by the
// orchestration layer.
type LockTimeoutError struct {
	Resource string
	Timeout  time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("timed out acquiring lock %q after %s", e.Resource, e.Timeout)
}

// IsTransient reports whether err (or any error in its chain) is retryable:
// an explicit TransientError, a network timeout, or a known transport-level
// failure pattern.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"connection refused",
		"broken pipe",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// RetryAfter extracts the backoff hint from a ThrottledError in the chain.
// The second return is false when err carries no throttling signal.
func RetryAfter(err error) (time.Duration, bool) {
	var th *ThrottledError
	if errors.As(err, &th) {
		return th.RetryAfter, true
	}
	return 0, false
}
