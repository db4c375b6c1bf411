package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/google/go-github/v62/github"

	"github.com/naka-gawa/talentrank/internal/domain"
)

// classify maps a client error onto the domain error kinds and prefixes it with op.
// Errors that fit no kind are returned wrapped but unclassified, so they are never retried.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrQuotaExhausted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%s: %w", op, &domain.QuotaError{ResetAt: rateErr.Rate.Reset.Time})
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrUpstreamUnavailable, err)
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch code := respErr.Response.StatusCode; {
		case code == http.StatusNotFound:
			return fmt.Errorf("%s: %w: %v", op, domain.ErrSubjectNotFound, err)
		case code == http.StatusTooManyRequests:
			return fmt.Errorf("%s: %w: %v", op, domain.ErrQuotaExhausted, err)
		case code >= http.StatusInternalServerError:
			return fmt.Errorf("%s: %w: %v", op, domain.ErrUpstreamUnavailable, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	// GraphQL errors only carry a message.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Could not resolve to a User"):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrSubjectNotFound, err)
	case strings.Contains(msg, "API rate limit exceeded"), strings.Contains(msg, "RATE_LIMITED"):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrQuotaExhausted, err)
	case strings.Contains(msg, "non-200 OK status code: 5"):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrUpstreamUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrUpstreamUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
