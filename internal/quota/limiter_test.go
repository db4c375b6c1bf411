package quota

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/naka-gawa/talentrank/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTier_Ceiling(t *testing.T) {
	assert.Equal(t, 60, Unauthenticated.Ceiling())
	assert.Equal(t, 5000, Authenticated.Ceiling())
	assert.Equal(t, "authenticated", Authenticated.String())
}

func TestLimiter_TryAcquire(t *testing.T) {
	clock := newFakeClock()
	l := New(Unauthenticated, WithClock(clock.Now))

	assert.Equal(t, 60, l.Remaining())
	assert.True(t, l.ResetAt().IsZero())

	require.NoError(t, l.TryAcquire(10))
	assert.Equal(t, 50, l.Remaining())
	assert.Equal(t, clock.Now().Add(time.Hour), l.ResetAt())

	require.NoError(t, l.TryAcquire(0))
	assert.Equal(t, 50, l.Remaining())

	err := l.TryAcquire(51)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrQuotaExhausted))
	resetAt, ok := domain.ResetAtOf(err)
	require.True(t, ok)
	assert.Equal(t, l.ResetAt(), resetAt)
	assert.Equal(t, 50, l.Remaining(), "a failed acquisition must not consume budget")

	require.NoError(t, l.TryAcquire(50))
	assert.Equal(t, 0, l.Remaining())
	assert.Error(t, l.TryAcquire(1))
}

func TestLimiter_WindowReset(t *testing.T) {
	clock := newFakeClock()
	l := New(Authenticated, WithClock(clock.Now), WithCeiling(3))

	require.NoError(t, l.TryAcquire(3))
	require.Error(t, l.TryAcquire(1))

	clock.Advance(59 * time.Minute)
	require.Error(t, l.TryAcquire(1), "backoff must last until the reset time")

	clock.Advance(time.Minute)
	assert.Equal(t, 3, l.Remaining())
	require.NoError(t, l.TryAcquire(1))
	assert.Equal(t, 2, l.Remaining())
	assert.Equal(t, clock.Now().Add(time.Hour), l.ResetAt())
}

func TestLimiter_Observe(t *testing.T) {
	clock := newFakeClock()
	l := New(Authenticated, WithClock(clock.Now))
	require.NoError(t, l.TryAcquire(1))

	providerReset := clock.Now().Add(2 * time.Hour)
	l.Observe(100, providerReset)
	assert.Equal(t, 100, l.Remaining())
	assert.Equal(t, providerReset, l.ResetAt())

	// a more permissive provider budget never raises the local one,
	// but the provider's window end is authoritative
	earlierReset := clock.Now().Add(time.Minute)
	l.Observe(4000, earlierReset)
	assert.Equal(t, 100, l.Remaining())
	assert.Equal(t, earlierReset, l.ResetAt())

	l.Observe(-1, clock.Now().Add(time.Hour))
	assert.Equal(t, 100, l.Remaining())
	assert.Equal(t, earlierReset, l.ResetAt())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 5000, l.Remaining())
}

func TestLimiter_ObserveIgnoresEndedWindows(t *testing.T) {
	testCases := []struct {
		name    string
		resetAt func(now time.Time) time.Time
	}{
		{name: "reset time already passed", resetAt: func(now time.Time) time.Time { return now.Add(-time.Minute) }},
		{name: "reset time is now", resetAt: func(now time.Time) time.Time { return now }},
		{name: "no reset time", resetAt: func(time.Time) time.Time { return time.Time{} }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clock := newFakeClock()
			l := New(Authenticated, WithClock(clock.Now))
			require.NoError(t, l.TryAcquire(1))
			oldReset := l.ResetAt()

			// a response from the previous window is read after the local window rolled
			clock.Advance(61 * time.Minute)
			require.True(t, clock.Now().After(oldReset))
			l.Observe(0, tc.resetAt(clock.Now()))

			assert.Equal(t, 5000, l.Remaining())
			require.NoError(t, l.TryAcquire(1))
			assert.Equal(t, 4999, l.Remaining())
			assert.Equal(t, clock.Now().Add(time.Hour), l.ResetAt())
		})
	}
}

func TestLimiter_ConcurrentAcquirersNeverExceedCeiling(t *testing.T) {
	const (
		ceiling    = 500
		goroutines = 64
		attempts   = 20
	)
	l := New(Authenticated, WithCeiling(ceiling), WithClock(newFakeClock().Now))

	var granted atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			for j := 0; j < attempts; j++ {
				units := 1 + (n+j)%3
				if l.TryAcquire(units) == nil {
					granted.Add(int64(units))
				}
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.LessOrEqual(t, granted.Load(), int64(ceiling))
	assert.Equal(t, int64(ceiling)-granted.Load(), int64(l.Remaining()))
}
