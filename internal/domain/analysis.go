package domain

import (
	"sort"
	"time"
)

// TalentRankResult is the output of the score calculator.
type TalentRankResult struct {
	Score               float64 `json:"score"`
	ProjectImportance   float64 `json:"project_importance"`
	ContributionScore   float64 `json:"contribution_score"`
	ActivityCoefficient float64 `json:"activity_coefficient"`
}

// NationSource tells which signal produced a NationEstimate.
type NationSource string

const (
	NationFromLocation NationSource = "location"
	NationFromNetwork  NationSource = "network"
	NationFromNothing  NationSource = "none"
)

// UnknownCountryCode is the user-assigned ISO code used for "no assertion".
const UnknownCountryCode = "ZZ"

// NationEstimate is a heuristic country estimate. Confidence 0 means no assertion.
type NationEstimate struct {
	CountryCode string       `json:"country_code"`
	Country     string       `json:"country"`
	Confidence  float64      `json:"confidence"`
	Source      NationSource `json:"source"`
}

// UnknownNation returns the explicit "no assertion" sentinel.
func UnknownNation() NationEstimate {
	return NationEstimate{
		CountryCode: UnknownCountryCode,
		Country:     "Unknown",
		Confidence:  0,
		Source:      NationFromNothing,
	}
}

// Asserted reports whether callers may rely on the estimate under the given threshold.
func (n NationEstimate) Asserted(threshold float64) bool {
	return n.CountryCode != UnknownCountryCode && n.Confidence > 0 && n.Confidence >= threshold
}

// DomainEstimate maps a technical-domain label to its weight. Weights sum to 1,
// or the map is empty when no signal exists.
type DomainEstimate map[string]float64

// Labels returns the labels with a positive weight, heaviest first.
func (d DomainEstimate) Labels() []string {
	labels := make([]string, 0, len(d))
	for label, w := range d {
		if w > 0 {
			labels = append(labels, label)
		}
	}
	sort.Slice(labels, func(i, j int) bool {
		if d[labels[i]] != d[labels[j]] {
			return d[labels[i]] > d[labels[j]]
		}
		return labels[i] < labels[j]
	})
	return labels
}

// AnalysisRecord is the unit stored in the analysis cache. It is written whole
// and superseded, never appended to.
type AnalysisRecord struct {
	Subject    Subject          `json:"username"`
	TalentRank TalentRankResult `json:"talent_rank"`
	Nation     NationEstimate   `json:"nation"`
	Domains    DomainEstimate   `json:"domains"`
	ComputedAt time.Time        `json:"computed_at"`
}

// Stale reports whether the record is older than ttl at now.
func (r AnalysisRecord) Stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.ComputedAt) > ttl
}

// Ranks reports whether r sorts before o in search results:
// score descending, then most recently computed, then subject.
func (r AnalysisRecord) Ranks(o AnalysisRecord) bool {
	if r.TalentRank.Score != o.TalentRank.Score {
		return r.TalentRank.Score > o.TalentRank.Score
	}
	if !r.ComputedAt.Equal(o.ComputedAt) {
		return r.ComputedAt.After(o.ComputedAt)
	}
	return r.Subject.Key() < o.Subject.Key()
}
