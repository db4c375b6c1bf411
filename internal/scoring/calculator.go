// Package scoring computes the TalentRank score of a collected profile.
package scoring

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/talentrank/internal/domain"
)

// Calculator is a pure function of a RawProfile. It holds no state besides its constants.
type Calculator struct {
	c Constants
}

// NewCalculator creates a Calculator with the default constants.
func NewCalculator() *Calculator {
	return &Calculator{c: DefaultConstants()}
}

// NewCalculatorWithConstants creates a Calculator with explicit constants.
func NewCalculatorWithConstants(c Constants) *Calculator {
	return &Calculator{c: c}
}

// Compute scores profile. Every time-dependent quantity is measured against
// profile.CollectedAt, so identical profiles always yield identical results.
func (calc *Calculator) Compute(profile domain.RawProfile) domain.TalentRankResult {
	pi := calc.ProjectImportance(profile.Repositories)
	cs := calc.ContributionScore(profile.Contributions)
	ac := calc.ActivityCoefficient(profile)

	w := calc.c.Weights
	score := clamp((pi*w.ProjectImportance+cs*w.Contribution)*ac*100, 0, 100)
	return domain.TalentRankResult{
		Score:               score,
		ProjectImportance:   pi,
		ContributionScore:   cs,
		ActivityCoefficient: ac,
	}
}

// RepositoryImportance is the weighted, log-normalised popularity of one repository in [0,1].
func (calc *Calculator) RepositoryImportance(r domain.Repository) float64 {
	w, c := calc.c.Weights, calc.c.Ceilings
	return clamp(
		w.Stars*norm(r.Stars, c.Stars)+
			w.Forks*norm(r.Forks, c.Forks)+
			w.Watchers*norm(r.Watchers, c.Watchers),
		0, 1)
}

// ProjectImportance is the mean repository importance weighted by 1 + the
// subject's commits to each repository. No repositories yield 0.
func (calc *Calculator) ProjectImportance(repos []domain.Repository) float64 {
	var sum, weights float64
	for _, r := range repos {
		weight := 1 + math.Max(0, float64(r.Commits))
		sum += weight * calc.RepositoryImportance(r)
		weights += weight
	}
	if weights == 0 {
		return 0
	}
	return clamp(sum/weights, 0, 1)
}

// ContributionScore combines commits, resolved issues, pull request quality and reviews.
func (calc *Calculator) ContributionScore(contrib domain.Contributions) float64 {
	w, c := calc.c.Weights, calc.c.Ceilings
	return clamp(
		w.Commits*norm(contrib.Commits, c.Commits)+
			w.ResolvedIssues*norm(contrib.ResolvedIssues, c.ResolvedIssues)+
			w.PRQuality*calc.prQuality(contrib)+
			w.Reviews*norm(contrib.Reviews, c.Reviews),
		0, 1)
}

// prQuality rewards merged pull requests, discounted by a low merge ratio.
func (calc *Calculator) prQuality(contrib domain.Contributions) float64 {
	merged := norm(contrib.MergedPullRequests, calc.c.Ceilings.MergedPRs)
	ratio := 0.0
	if contrib.PullRequests > 0 {
		ratio = clamp(float64(contrib.MergedPullRequests)/float64(contrib.PullRequests), 0, 1)
	}
	return merged * (0.5 + 0.5*ratio)
}

// ActivityCoefficient is floor + (1-floor)·recency·consistency. It is 1 for a
// subject active at collection time every week with a constant cadence, and
// never drops below the floor.
func (calc *Calculator) ActivityCoefficient(profile domain.RawProfile) float64 {
	a := calc.c.Activity
	last := lastActivity(profile)
	if last.IsZero() {
		return a.Floor
	}
	rc := calc.recency(last, profile.CollectedAt) * calc.consistency(profile.Contributions.Weekly)
	// same as floor + (1-floor)·rc, but exactly 1 when rc is 1
	return clamp(1-(1-a.Floor)*(1-rc), a.Floor, 1)
}

func (calc *Calculator) recency(last, now time.Time) float64 {
	a := calc.c.Activity
	idle := now.Sub(last) - a.Grace
	if idle <= 0 {
		return 1
	}
	days := idle.Hours() / 24
	return math.Exp(-days / a.DecayDays)
}

// consistency is the share of active weeks, discounted by the coefficient of
// variation of the weekly counts.
func (calc *Calculator) consistency(weekly []int) float64 {
	if len(weekly) == 0 {
		return calc.c.Activity.NeutralConsistency
	}
	data := make(stats.Float64Data, len(weekly))
	active := 0
	for i, n := range weekly {
		data[i] = float64(n)
		if n > 0 {
			active++
		}
	}
	if active == 0 {
		return 0
	}
	mean, err := data.Mean()
	if err != nil || mean == 0 {
		return 0
	}
	sd, err := data.StandardDeviationPopulation()
	if err != nil {
		return 0
	}
	cv := math.Min(1, sd/mean)
	return float64(active) / float64(len(weekly)) * (1 - cv/2)
}

// lastActivity is the latest of the recorded last activity and the pushes to
// owned repositories; zero when there is no trace of activity.
func lastActivity(profile domain.RawProfile) time.Time {
	last := profile.Contributions.LastActiveAt
	for _, r := range profile.Repositories {
		if r.Owned && r.PushedAt.After(last) {
			last = r.PushedAt
		}
	}
	if !profile.CollectedAt.IsZero() && last.After(profile.CollectedAt) {
		last = profile.CollectedAt
	}
	return last
}

// norm log-scales v against ceiling c: 0 for v ≤ 0, saturating at 1.
func norm(v int, c float64) float64 {
	if v <= 0 || c <= 0 {
		return 0
	}
	return math.Min(1, math.Log1p(float64(v))/math.Log1p(c))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
