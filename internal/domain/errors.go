package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel error kinds shared by every layer. Callers match them with errors.Is.
var (
	// ErrSubjectNotFound is permanent: the identifier does not resolve upstream.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrQuotaExhausted is transient: retry after the quota resets.
	ErrQuotaExhausted = errors.New("quota exhausted")
	// ErrUpstreamUnavailable is transient: network or provider failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrCacheUnavailable reports a storage backend failure.
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrInvalidQuery reports a malformed request parameter.
	ErrInvalidQuery = errors.New("invalid query")
)

// QuotaError is returned when the external-call budget is exhausted.
type QuotaError struct {
	ResetAt time.Time
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s: resets at %s", ErrQuotaExhausted, e.ResetAt.UTC().Format(time.RFC3339))
}

// Is makes errors.Is(err, ErrQuotaExhausted) hold.
func (e *QuotaError) Is(target error) bool { return target == ErrQuotaExhausted }

// RetryAfter returns how long a caller must back off at now.
func (e *QuotaError) RetryAfter(now time.Time) time.Duration {
	d := e.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// NewInvalidQueryError wraps ErrInvalidQuery with a message.
func NewInvalidQueryError(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, msg)
}

// ResetAtOf extracts the quota reset time from err, if any.
func ResetAtOf(err error) (time.Time, bool) {
	var qe *QuotaError
	if errors.As(err, &qe) {
		return qe.ResetAt, true
	}
	return time.Time{}, false
}
