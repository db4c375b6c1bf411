// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/naka-gawa/talentrank/internal/cache"
	"github.com/naka-gawa/talentrank/internal/domain"
	"github.com/naka-gawa/talentrank/internal/logger"
	"github.com/naka-gawa/talentrank/internal/metrics"
	"github.com/naka-gawa/talentrank/internal/nation"
	"github.com/naka-gawa/talentrank/internal/scoring"
	"github.com/naka-gawa/talentrank/internal/techdomain"
)

// Search defaults.
const (
	DefaultSearchLimit = 20
	DefaultMaxLimit    = 100
)

// ProfileSource collects the raw profile of a subject. *collector.Collector implements it.
type ProfileSource interface {
	Fetch(ctx context.Context, subject domain.Subject) (domain.RawProfile, error)
}

// QuotaReporter exposes the remaining provider budget. *quota.Limiter implements it.
type QuotaReporter interface {
	Remaining() int
}

// Config tunes an Analyzer.
type Config struct {
	// NationThreshold is the confidence below which a nation estimate does not
	// match a nation filter and is not listed in stats.
	NationThreshold float64
	// SearchMaxLimit caps the limit of a search.
	SearchMaxLimit int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMetrics records analysis outcomes on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithQuota publishes the remaining budget of q after every computation.
func WithQuota(q QuotaReporter) Option {
	return func(a *Analyzer) { a.quota = q }
}

// Outcome is the result of one Analyze call.
type Outcome struct {
	Record domain.AnalysisRecord
	// Cached is true when a fresh stored record was returned without collecting.
	Cached bool
	// Shared is true when the record came from a concurrent computation.
	Shared bool
	// Degraded is true when the record could not be read from or committed to the
	// cache. The record itself is complete.
	Degraded bool
}

// Analyzer orchestrates collection, analysis and caching of developer records.
type Analyzer struct {
	source     ProfileSource
	cache      *cache.Cache
	calculator *scoring.Calculator
	nations    *nation.Predictor
	domains    *techdomain.Classifier
	cfg        Config
	logger     logger.Logger
	metrics    *metrics.Manager
	quota      QuotaReporter
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer(source ProfileSource, c *cache.Cache, cfg Config, log logger.Logger, opts ...Option) *Analyzer {
	if cfg.SearchMaxLimit < 1 {
		cfg.SearchMaxLimit = DefaultMaxLimit
	}
	calc := scoring.NewCalculator()
	a := &Analyzer{
		source:     source,
		cache:      c,
		calculator: calc,
		nations:    nation.NewPredictor(),
		domains:    techdomain.NewClassifier(calc),
		cfg:        cfg,
		logger:     log.Named("analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze returns the analysis record of subject. A fresh cached record is
// returned as is unless force is set. Otherwise the profile is collected and
// analyzed under the per-subject latch, and the result is committed to the cache.
// Collection errors abort the run and leave any previous record untouched.
func (a *Analyzer) Analyze(ctx context.Context, subject domain.Subject, force bool) (Outcome, error) {
	start := time.Now()
	a.logger.Info(ctx, "analyzing developer", logger.String("subject", subject.String()), logger.Bool("force", force))

	var out Outcome
	if !force {
		record, fresh, err := a.lookup(ctx, subject)
		if err != nil {
			out.Degraded = true
		}
		if fresh {
			a.metrics.RecordAnalysis(metrics.OutcomeFresh, time.Since(start))
			return Outcome{Record: record, Cached: true}, nil
		}
	}

	var commitFailed bool
	record, shared, err := a.cache.Do(ctx, subject, func(ctx context.Context) (domain.AnalysisRecord, error) {
		if !force {
			// Another caller may have committed while this one waited for the latch.
			if record, fresh, _ := a.lookup(ctx, subject); fresh {
				return record, nil
			}
		}
		profile, err := a.source.Fetch(ctx, subject)
		if err != nil {
			return domain.AnalysisRecord{}, err
		}
		record := a.assemble(profile)
		if err := ctx.Err(); err != nil {
			return domain.AnalysisRecord{}, err
		}
		if err := a.cache.Put(ctx, record); err != nil {
			commitFailed = true
			a.logger.Warn(ctx, "failed to commit analysis; serving uncached result",
				logger.String("subject", subject.String()), logger.Error(err))
		}
		return record, nil
	})
	a.publishQuota()
	if err != nil {
		a.metrics.RecordAnalysis(metrics.OutcomeFailed, time.Since(start))
		a.logger.Warn(ctx, "analysis failed", logger.String("subject", subject.String()), logger.Error(err))
		return Outcome{}, err
	}

	out.Record = record
	out.Shared = shared
	out.Degraded = out.Degraded || commitFailed
	outcome := metrics.OutcomeComputed
	if out.Degraded {
		outcome = metrics.OutcomeDegraded
	}
	a.metrics.RecordAnalysis(outcome, time.Since(start))
	a.logger.Info(ctx, "analysis complete",
		logger.String("subject", record.Subject.String()),
		logger.Float64("score", record.TalentRank.Score),
		logger.Bool("shared", shared),
		logger.Duration("elapsed", time.Since(start)))
	return out, nil
}

// lookup reports a cache failure as a miss, so the analysis can still be served.
func (a *Analyzer) lookup(ctx context.Context, subject domain.Subject) (domain.AnalysisRecord, bool, error) {
	record, f, err := a.cache.Lookup(ctx, subject)
	if err != nil {
		a.logger.Warn(ctx, "cache lookup failed; recomputing", logger.String("subject", subject.String()), logger.Error(err))
		return domain.AnalysisRecord{}, false, err
	}
	return record, f == cache.Fresh, nil
}

// assemble runs every analyzer stage over one immutable profile.
func (a *Analyzer) assemble(profile domain.RawProfile) domain.AnalysisRecord {
	subject := profile.Subject
	if profile.Account.Login != "" {
		subject = domain.Subject(profile.Account.Login)
	}
	return domain.AnalysisRecord{
		Subject:    subject,
		TalentRank: a.calculator.Compute(profile),
		Nation:     a.nations.Predict(profile),
		Domains:    a.domains.Classify(profile),
		ComputedAt: profile.CollectedAt,
	}
}

func (a *Analyzer) publishQuota() {
	if a.quota != nil {
		a.metrics.SetQuotaRemaining(a.quota.Remaining())
	}
}

// SearchParams are the raw search inputs. Nil pointers select the defaults.
type SearchParams struct {
	Domain  string
	Nation  string
	MinRank *float64
	Limit   *int
	Offset  int
}

// Query validates p and turns it into a store query.
func (a *Analyzer) Query(p SearchParams) (domain.Query, error) {
	q := domain.Query{
		Domain:          strings.TrimSpace(p.Domain),
		Nation:          strings.ToUpper(strings.TrimSpace(p.Nation)),
		Limit:           DefaultSearchLimit,
		Offset:          p.Offset,
		NationThreshold: a.cfg.NationThreshold,
	}
	if p.Limit != nil {
		if *p.Limit < 1 || *p.Limit > a.cfg.SearchMaxLimit {
			return domain.Query{}, domain.NewInvalidQueryError(fmt.Sprintf("limit must be between 1 and %d", a.cfg.SearchMaxLimit))
		}
		q.Limit = *p.Limit
	}
	if p.Offset < 0 {
		return domain.Query{}, domain.NewInvalidQueryError("offset must not be negative")
	}
	if p.MinRank != nil {
		r := *p.MinRank
		if math.IsNaN(r) || r < 0 || r > 100 {
			return domain.Query{}, domain.NewInvalidQueryError("min_rank must be between 0 and 100")
		}
		q.MinRank = &r
	}
	if q.Nation != "" && (len(q.Nation) != 2 || strings.ContainsFunc(q.Nation, func(r rune) bool { return r < 'A' || r > 'Z' })) {
		return domain.Query{}, domain.NewInvalidQueryError("nation must be a two-letter country code")
	}
	return q, nil
}

// Search returns the stored analyses matching p, best score first.
func (a *Analyzer) Search(ctx context.Context, p SearchParams) (domain.SearchResult, error) {
	q, err := a.Query(p)
	if err != nil {
		return domain.SearchResult{}, err
	}
	res, err := a.cache.Search(ctx, q)
	if err != nil {
		return domain.SearchResult{}, err
	}
	if res.Records == nil {
		res.Records = []domain.AnalysisRecord{}
	}
	return res, nil
}

// Stats aggregates every stored analysis.
func (a *Analyzer) Stats(ctx context.Context) (domain.Stats, error) {
	return a.cache.Stats(ctx, a.cfg.NationThreshold)
}

// Health reports whether the cache backend is reachable.
func (a *Analyzer) Health(ctx context.Context) error {
	if err := a.cache.Ping(ctx); err != nil {
		if errors.Is(err, domain.ErrCacheUnavailable) {
			return err
		}
		return errors.Join(domain.ErrCacheUnavailable, err)
	}
	return nil
}
