// Package cache implements the analysis cache: the freshness contract over a
// record store and the per-subject single-flight latch.
package cache

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/naka-gawa/talentrank/internal/domain"
	"github.com/naka-gawa/talentrank/internal/metrics"
	"github.com/naka-gawa/talentrank/internal/store"
)

// DefaultTTL is the freshness window used when none is configured.
const DefaultTTL = time.Hour

// Freshness classifies the outcome of a Lookup.
type Freshness int

const (
	Miss Freshness = iota
	Stale
	Fresh
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return metrics.LookupFresh
	case Stale:
		return metrics.LookupStale
	default:
		return metrics.LookupMiss
	}
}

// ComputeFunc produces the record for one subject. It runs at most once at a
// time per subject.
type ComputeFunc func(ctx context.Context) (domain.AnalysisRecord, error)

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source used for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMetrics records lookups and shared waits on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(c *Cache) { c.metrics = m }
}

// Cache is safe for concurrent use. One instance is shared by the whole process.
type Cache struct {
	store   store.Store
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Manager
	group   singleflight.Group
}

// New creates a Cache over s. A non-positive ttl selects DefaultTTL.
func New(s store.Store, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{store: s, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Lookup returns the stored record of subject and whether it is still fresh.
func (c *Cache) Lookup(ctx context.Context, subject domain.Subject) (domain.AnalysisRecord, Freshness, error) {
	record, ok, err := c.store.Get(ctx, subject)
	if err != nil {
		return domain.AnalysisRecord{}, Miss, err
	}
	f := Miss
	if ok {
		f = Fresh
		if record.Stale(c.now(), c.ttl) {
			f = Stale
		}
	}
	c.metrics.RecordCacheLookup(f.String())
	return record, f, nil
}

// Put replaces the stored record of record.Subject.
func (c *Cache) Put(ctx context.Context, record domain.AnalysisRecord) error {
	return c.store.Put(ctx, record)
}

// Search runs q against the stored records.
func (c *Cache) Search(ctx context.Context, q domain.Query) (domain.SearchResult, error) {
	return c.store.Search(ctx, q)
}

// Stats aggregates the stored records.
func (c *Cache) Stats(ctx context.Context, nationThreshold float64) (domain.Stats, error) {
	return c.store.Stats(ctx, nationThreshold)
}

// Ping checks the backing store.
func (c *Cache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// Do runs fn for subject unless a computation for the same subject is already
// in flight, in which case it waits for that computation and shares its result.
// shared reports whether the result came from another caller's computation.
//
// Each caller stops waiting when its own ctx is done. When the computation was
// abandoned because its leader's context ended, a waiter whose context is still
// live starts a new computation instead of inheriting the cancellation.
func (c *Cache) Do(ctx context.Context, subject domain.Subject, fn ComputeFunc) (record domain.AnalysisRecord, shared bool, err error) {
	key := subject.Key()
	for {
		leader := false
		ch := c.group.DoChan(key, func() (interface{}, error) {
			leader = true
			return fn(ctx)
		})

		select {
		case <-ctx.Done():
			return domain.AnalysisRecord{}, false, ctx.Err()
		case res := <-ch:
			if !leader {
				c.metrics.RecordSharedWait()
			}
			if res.Err != nil {
				if !leader && leaderGone(res.Err) && ctx.Err() == nil {
					continue
				}
				return domain.AnalysisRecord{}, !leader, res.Err
			}
			return res.Val.(domain.AnalysisRecord), !leader, nil
		}
	}
}

func leaderGone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
