// Package store provides durable backends for analysis records.
package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/naka-gawa/talentrank/internal/config"
	"github.com/naka-gawa/talentrank/internal/domain"
)

// Store persists one AnalysisRecord per subject. Put replaces the previous record
// atomically; readers never observe a partially written record. Backend failures
// wrap domain.ErrCacheUnavailable.
type Store interface {
	Get(ctx context.Context, subject domain.Subject) (domain.AnalysisRecord, bool, error)
	Put(ctx context.Context, record domain.AnalysisRecord) error
	// Search returns the records matching q, ordered by score descending, then most
	// recently computed, then subject.
	Search(ctx context.Context, q domain.Query) (domain.SearchResult, error)
	// Stats aggregates every stored record; nations below threshold are not listed.
	Stats(ctx context.Context, nationThreshold float64) (domain.Stats, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the backend selected by driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case config.DriverMemory:
		return NewMemory(), nil
	case config.DriverSQLite, config.DriverPostgres:
		return OpenSQL(ctx, driver, dsn)
	case config.DriverRedis:
		return OpenRedis(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrCacheUnavailable, op, err)
}

// rank orders records the way Search returns them.
func rank(records []domain.AnalysisRecord) {
	sort.Slice(records, func(i, j int) bool { return records[i].Ranks(records[j]) })
}

// filterAndPage applies q to records in memory.
func filterAndPage(records []domain.AnalysisRecord, q domain.Query) domain.SearchResult {
	matched := make([]domain.AnalysisRecord, 0, len(records))
	for _, r := range records {
		if q.Matches(r) {
			matched = append(matched, r)
		}
	}
	rank(matched)
	return domain.SearchResult{Total: len(matched), Records: q.Page(matched)}
}

func cloneRecord(r domain.AnalysisRecord) domain.AnalysisRecord {
	if r.Domains != nil {
		domains := make(domain.DomainEstimate, len(r.Domains))
		for k, v := range r.Domains {
			domains[k] = v
		}
		r.Domains = domains
	}
	return r
}
