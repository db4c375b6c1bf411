package domain

import (
	"sort"
	"strings"
)

// BucketCount is the number of score distribution buckets, each 10 points wide.
const BucketCount = 10

// Stats is the aggregate read model over stored analyses.
type Stats struct {
	TotalSubjects int              `json:"total_developers"`
	AverageScore  float64          `json:"avg_rank"`
	Buckets       [BucketCount]int `json:"score_buckets"`
	Nations       []string         `json:"nations"`
	Domains       []string         `json:"domains"`
}

// BucketOf returns the distribution bucket of a score; 100 falls in the last bucket.
func BucketOf(score float64) int {
	b := int(score / 10)
	if b < 0 {
		return 0
	}
	if b >= BucketCount {
		return BucketCount - 1
	}
	return b
}

// StatsBuilder accumulates records into a Stats value. Store backends that cannot
// aggregate natively feed it one record at a time.
type StatsBuilder struct {
	threshold float64
	total     int
	sum       float64
	buckets   [BucketCount]int
	nations   map[string]struct{}
	domains   map[string]struct{}
}

// NewStatsBuilder creates a builder that only lists nations asserted at threshold.
func NewStatsBuilder(threshold float64) *StatsBuilder {
	return &StatsBuilder{
		threshold: threshold,
		nations:   make(map[string]struct{}),
		domains:   make(map[string]struct{}),
	}
}

// Add folds one record into the aggregate.
func (b *StatsBuilder) Add(r AnalysisRecord) {
	b.total++
	b.sum += r.TalentRank.Score
	b.buckets[BucketOf(r.TalentRank.Score)]++
	if r.Nation.Asserted(b.threshold) {
		b.nations[r.Nation.CountryCode] = struct{}{}
	}
	for _, label := range r.Domains.Labels() {
		b.domains[label] = struct{}{}
	}
}

// Build returns the accumulated Stats with sorted nation and domain lists.
func (b *StatsBuilder) Build() Stats {
	s := Stats{
		TotalSubjects: b.total,
		Buckets:       b.buckets,
		Nations:       sortedKeys(b.nations),
		Domains:       sortedKeys(b.domains),
	}
	if b.total > 0 {
		s.AverageScore = b.sum / float64(b.total)
	}
	return s
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Query filters and paginates a search over stored analyses.
type Query struct {
	Domain  string
	Nation  string
	MinRank *float64
	Limit   int
	Offset  int
	// NationThreshold is the confidence at which a nation filter matches.
	NationThreshold float64
}

// Matches reports whether r satisfies the query filters (pagination excluded).
func (q Query) Matches(r AnalysisRecord) bool {
	if q.MinRank != nil && r.TalentRank.Score < *q.MinRank {
		return false
	}
	if q.Nation != "" {
		if !r.Nation.Asserted(q.NationThreshold) || !strings.EqualFold(r.Nation.CountryCode, q.Nation) {
			return false
		}
	}
	if q.Domain != "" {
		found := false
		for label, w := range r.Domains {
			if w > 0 && strings.EqualFold(label, q.Domain) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Page applies offset and limit to an already ordered slice.
func (q Query) Page(records []AnalysisRecord) []AnalysisRecord {
	if q.Offset >= len(records) {
		return []AnalysisRecord{}
	}
	end := len(records)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return records[q.Offset:end]
}

// SearchResult is one page of search results plus the unpaginated match count.
type SearchResult struct {
	Total   int              `json:"total"`
	Records []AnalysisRecord `json:"developers"`
}
