// Package collector gathers the raw profile of a developer from the provider.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/talentrank/internal/domain"
	"github.com/naka-gawa/talentrank/internal/gateway"
	"github.com/naka-gawa/talentrank/internal/logger"
	"github.com/naka-gawa/talentrank/internal/metrics"
)

// Sub-fetch names, used in logs and metrics.
const (
	fetchAccount       = "account"
	fetchRepositories  = "repositories"
	fetchContributions = "contributions"
	fetchNetwork       = "network"
)

// Config tunes a Collector.
type Config struct {
	// Concurrency bounds the sub-fetches in flight for one subject.
	Concurrency int
	// Window is how far back contributions are counted.
	Window time.Duration
	Retry  RetryConfig
}

// Option configures a Collector.
type Option func(*Collector)

// WithClock overrides the time source used to stamp CollectedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithMetrics records sub-fetch outcomes on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(c *Collector) { c.metrics = m }
}

// Collector turns a subject into a RawProfile.
type Collector struct {
	fetcher gateway.Fetcher
	cfg     Config
	logger  logger.Logger
	metrics *metrics.Manager
	now     func() time.Time
}

// New creates a Collector on top of fetcher.
func New(fetcher gateway.Fetcher, cfg Config, log logger.Logger, opts ...Option) *Collector {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = 365 * 24 * time.Hour
	}
	c := &Collector{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  log.Named("collector"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch collects everything known about subject. The account is fetched first so
// that an unknown subject costs a single call; the remaining sub-fetches run
// concurrently. Repositories and contributions are required. The network is
// best effort, except that quota exhaustion and cancellation always fail the fetch.
func (c *Collector) Fetch(ctx context.Context, subject domain.Subject) (domain.RawProfile, error) {
	login := subject.String()
	collectedAt := c.now()
	c.logger.Debug(ctx, "collecting profile", logger.String("subject", login))

	var account domain.Account
	err := c.required(ctx, fetchAccount, func(ctx context.Context) error {
		var err error
		account, err = c.fetcher.FetchAccount(ctx, login)
		return err
	})
	if err != nil {
		return domain.RawProfile{}, err
	}

	var (
		owned    []domain.Repository
		activity gateway.ContributionData
		network  []domain.Neighbor
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.cfg.Concurrency)

	eg.Go(func() error {
		return c.required(egCtx, fetchRepositories, func(ctx context.Context) error {
			var err error
			owned, err = c.fetcher.FetchRepositories(ctx, login)
			return err
		})
	})
	eg.Go(func() error {
		return c.required(egCtx, fetchContributions, func(ctx context.Context) error {
			var err error
			activity, err = c.fetcher.FetchContributions(ctx, login, collectedAt.Add(-c.cfg.Window), collectedAt)
			return err
		})
	})
	eg.Go(func() error {
		var err error
		network, err = c.fetcher.FetchNetwork(egCtx, login)
		c.metrics.RecordFetch(fetchNetwork, err)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrQuotaExhausted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", fetchNetwork, err)
		}
		c.logger.Warn(egCtx, "network fetch failed; continuing without it",
			logger.String("subject", login), logger.Error(err))
		network = nil
		return nil
	})

	if err := eg.Wait(); err != nil {
		return domain.RawProfile{}, err
	}
	c.logger.Debug(ctx, "profile collected",
		logger.String("subject", login),
		logger.Int("repositories", len(owned)),
		logger.Int("neighbors", len(network)))

	return domain.RawProfile{
		Subject:       subject,
		Account:       account,
		Repositories:  mergeRepositories(login, owned, activity.Repositories),
		Contributions: activity.Totals,
		Network:       network,
		CollectedAt:   collectedAt,
	}, nil
}

// required runs a mandatory sub-fetch with retries and prefixes its error.
func (c *Collector) required(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	err := retry(ctx, c.cfg.Retry, func(ctx context.Context) error {
		err := fn(ctx)
		c.metrics.RecordFetch(name, err)
		if err != nil && retryable(err) {
			c.logger.Debug(ctx, "retryable fetch failure", logger.String("fetch", name), logger.Error(err))
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// mergeRepositories joins owned repositories with the ones the subject committed
// to, keyed by full name. Owned metadata wins; commit counts come from the
// contribution breakdown. The result is sorted by full name.
func mergeRepositories(login string, owned, contributed []domain.Repository) []domain.Repository {
	merged := make([]domain.Repository, 0, len(owned)+len(contributed))
	index := make(map[string]int, len(owned)+len(contributed))

	for _, r := range owned {
		key := strings.ToLower(r.FullName)
		if _, ok := index[key]; ok {
			continue
		}
		index[key] = len(merged)
		merged = append(merged, r)
	}
	for _, r := range contributed {
		key := strings.ToLower(r.FullName)
		if i, ok := index[key]; ok {
			merged[i].Commits = r.Commits
			continue
		}
		if !r.Owned && strings.HasPrefix(key, strings.ToLower(login)+"/") {
			r.Owned = true
		}
		index[key] = len(merged)
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return strings.ToLower(merged[i].FullName) < strings.ToLower(merged[j].FullName)
	})
	return merged
}
