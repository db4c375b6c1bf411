package scoring

import "time"

// Ceilings are the activity counts at which a normalised signal saturates at 1.
type Ceilings struct {
	Stars          float64
	Forks          float64
	Watchers       float64
	Commits        float64
	ResolvedIssues float64
	MergedPRs      float64
	Reviews        float64
}

// Weights are the fixed linear weights of the score formula.
type Weights struct {
	Stars    float64
	Forks    float64
	Watchers float64

	Commits        float64
	ResolvedIssues float64
	PRQuality      float64
	Reviews        float64

	ProjectImportance float64
	Contribution      float64
}

// Activity tunes the activity coefficient.
type Activity struct {
	// Floor is the coefficient of a fully dormant account; it keeps strong
	// historical profiles above zero.
	Floor float64
	// Grace is the idle time that costs nothing.
	Grace time.Duration
	// DecayDays is the e-folding time of recency past the grace period.
	DecayDays float64
	// NeutralConsistency applies when no weekly calendar is available.
	NeutralConsistency float64
}

// Constants groups every tunable of the calculator. They are fixed per process.
type Constants struct {
	Ceilings Ceilings
	Weights  Weights
	Activity Activity
}

// DefaultConstants returns the constants used in production and pinned by the golden test.
func DefaultConstants() Constants {
	return Constants{
		Ceilings: Ceilings{
			Stars:          1000,
			Forks:          500,
			Watchers:       200,
			Commits:        100,
			ResolvedIssues: 50,
			MergedPRs:      30,
			Reviews:        40,
		},
		Weights: Weights{
			Stars:             0.4,
			Forks:             0.3,
			Watchers:          0.3,
			Commits:           0.30,
			ResolvedIssues:    0.25,
			PRQuality:         0.25,
			Reviews:           0.20,
			ProjectImportance: 0.4,
			Contribution:      0.6,
		},
		Activity: Activity{
			Floor:              0.05,
			Grace:              30 * 24 * time.Hour,
			DecayDays:          180,
			NeutralConsistency: 0.5,
		},
	}
}
