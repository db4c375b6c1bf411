package quota

import (
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Provider rate-limit headers.
const (
	headerRemaining = "X-RateLimit-Remaining"
	headerReset     = "X-RateLimit-Reset"
	headerResource  = "X-RateLimit-Resource"
)

// Transport charges one quota unit before every request it lets through.
// A request is never issued once the budget is exhausted.
type Transport struct {
	Base    http.RoundTripper
	Limiter *Limiter
	// Pacer optionally spaces requests out; nil disables pacing.
	Pacer *rate.Limiter
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(base http.RoundTripper, limiter *Limiter, pacer *rate.Limiter) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Limiter: limiter, Pacer: pacer}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Pacer != nil {
		if err := t.Pacer.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	if err := t.Limiter.TryAcquire(1); err != nil {
		return nil, err
	}
	resp, err := t.Base.RoundTrip(req)
	if resp != nil {
		t.observe(resp.Header)
	}
	return resp, err
}

func (t *Transport) observe(h http.Header) {
	switch h.Get(headerResource) {
	case "", "core", "graphql":
	default:
		// search and other resources have their own short windows
		return
	}
	remaining, err := strconv.Atoi(h.Get(headerRemaining))
	if err != nil {
		return
	}
	var resetAt time.Time
	if unix, err := strconv.ParseInt(h.Get(headerReset), 10, 64); err == nil {
		resetAt = time.Unix(unix, 0)
	}
	t.Limiter.Observe(remaining, resetAt)
}
