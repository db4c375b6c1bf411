// Package quota tracks the external-API call budget shared by every collector.
//
// The provider enforces a fixed hourly window per authentication tier. The
// Limiter mirrors that window locally and is reconciled with the provider's
// rate-limit headers so that the local view is never more permissive.
package quota

import (
	"sync"
	"time"

	"github.com/naka-gawa/talentrank/internal/domain"
)

// Tier is an authentication tier of the provider.
type Tier int

const (
	Unauthenticated Tier = iota
	Authenticated
)

// Ceiling returns the hourly call budget of the tier.
func (t Tier) Ceiling() int {
	if t == Authenticated {
		return 5000
	}
	return 60
}

func (t Tier) String() string {
	if t == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// DefaultWindow matches the provider's rate-limit window.
const DefaultWindow = time.Hour

// Limiter is a mutex-guarded fixed-window budget. It is safe for concurrent use.
type Limiter struct {
	mu        sync.Mutex
	ceiling   int
	window    time.Duration
	remaining int
	resetAt   time.Time
	now       func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithCeiling overrides the tier ceiling.
func WithCeiling(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.ceiling = n
		}
	}
}

// WithWindow overrides the window length.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// New creates a Limiter holding a full budget for tier.
func New(tier Tier, opts ...Option) *Limiter {
	l := &Limiter{
		ceiling: tier.Ceiling(),
		window:  DefaultWindow,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.remaining = l.ceiling
	return l
}

// rollLocked opens a new window when the current one has ended.
// The window starts at the first use after a reset, as the provider's does.
func (l *Limiter) rollLocked(now time.Time) {
	if l.resetAt.IsZero() || !now.Before(l.resetAt) {
		l.remaining = l.ceiling
		l.resetAt = now.Add(l.window)
	}
}

// TryAcquire reserves n units or fails with a *domain.QuotaError without
// consuming anything. n <= 0 always succeeds.
func (l *Limiter) TryAcquire(n int) error {
	if n <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.rollLocked(now)
	if l.remaining < n {
		return &domain.QuotaError{ResetAt: l.resetAt}
	}
	l.remaining -= n
	return nil
}

// Remaining reports the current budget.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if !l.resetAt.IsZero() && !now.Before(l.resetAt) {
		return l.ceiling
	}
	return l.remaining
}

// ResetAt reports when the budget replenishes. Before the first acquisition it
// is the zero time: nothing needs to replenish.
func (l *Limiter) ResetAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resetAt
}

// Ceiling reports the configured budget per window.
func (l *Limiter) Ceiling() int { return l.ceiling }

// Observe reconciles the local budget with the provider's view. The remaining
// budget only ever decreases through Observe, and the provider's reset time is
// adopted as the window end. Observations whose reset time is not in the future
// describe a window that has already ended and are ignored.
func (l *Limiter) Observe(remaining int, resetAt time.Time) {
	if remaining < 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !resetAt.After(now) {
		return
	}
	l.rollLocked(now)
	if remaining < l.remaining {
		l.remaining = remaining
	}
	l.resetAt = resetAt
}
