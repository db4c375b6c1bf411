package scoring

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/talentrank/internal/domain"
)

var collectedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func uniformWeeks(n, perWeek int) []int {
	weeks := make([]int, n)
	for i := range weeks {
		weeks[i] = perWeek
	}
	return weeks
}

// goldenProfile has one repository (1000 stars, 200 forks, 150 watchers), 50 commits,
// 10 resolved issues, 5 merged out of 5 pull requests, 8 reviews and steady weekly
// activity up to the collection time.
func goldenProfile() domain.RawProfile {
	return domain.RawProfile{
		Subject: "golden",
		Repositories: []domain.Repository{
			{FullName: "golden/project", Owned: true, Stars: 1000, Forks: 200, Watchers: 150, Commits: 50, PushedAt: collectedAt},
		},
		Contributions: domain.Contributions{
			Commits:            50,
			ResolvedIssues:     10,
			PullRequests:       5,
			MergedPullRequests: 5,
			Reviews:            8,
			Weekly:             uniformWeeks(52, 3),
			LastActiveAt:       collectedAt,
		},
		CollectedAt: collectedAt,
	}
}

func TestCalculator_Golden(t *testing.T) {
	result := NewCalculator().Compute(goldenProfile())

	assert.InDelta(t, 0.939746, result.ProjectImportance, 1e-6)
	assert.InDelta(t, 0.656828, result.ContributionScore, 1e-6)
	assert.Equal(t, 1.0, result.ActivityCoefficient)
	assert.Equal(t, "76.9995", strconv.FormatFloat(result.Score, 'f', 4, 64))
}

func TestCalculator_EmptyProfileScoresZero(t *testing.T) {
	result := NewCalculator().Compute(domain.RawProfile{Subject: "nobody", CollectedAt: collectedAt})

	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, 0.0, result.ProjectImportance)
	assert.Equal(t, 0.0, result.ContributionScore)
	assert.Equal(t, DefaultConstants().Activity.Floor, result.ActivityCoefficient)
}

func TestCalculator_Deterministic(t *testing.T) {
	calc := NewCalculator()
	p := goldenProfile()
	first := calc.Compute(p)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, calc.Compute(p))
	}
}

func randomProfile(r *rand.Rand) domain.RawProfile {
	repos := make([]domain.Repository, r.Intn(6))
	for i := range repos {
		repos[i] = domain.Repository{
			FullName: "x/" + strconv.Itoa(i),
			Owned:    r.Intn(2) == 0,
			Stars:    r.Intn(200000) - 10,
			Forks:    r.Intn(50000),
			Watchers: r.Intn(5000),
			Commits:  r.Intn(3000),
			PushedAt: collectedAt.Add(-time.Duration(r.Intn(2000)) * 24 * time.Hour),
		}
	}
	weeks := make([]int, r.Intn(60))
	for i := range weeks {
		weeks[i] = r.Intn(40)
	}
	prs := r.Intn(500)
	return domain.RawProfile{
		Repositories: repos,
		Contributions: domain.Contributions{
			Commits:            r.Intn(100000),
			ResolvedIssues:     r.Intn(1000),
			PullRequests:       prs,
			MergedPullRequests: r.Intn(prs + 20),
			Reviews:            r.Intn(2000),
			Weekly:             weeks,
			LastActiveAt:       collectedAt.Add(-time.Duration(r.Intn(4000)) * time.Hour),
		},
		CollectedAt: collectedAt,
	}
}

func TestCalculator_ScoreBounds(t *testing.T) {
	calc := NewCalculator()
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		result := calc.Compute(randomProfile(r))
		require.GreaterOrEqual(t, result.Score, 0.0)
		require.LessOrEqual(t, result.Score, 100.0)
		require.Greater(t, result.ActivityCoefficient, 0.0)
		require.LessOrEqual(t, result.ActivityCoefficient, 1.0)
		require.GreaterOrEqual(t, result.ProjectImportance, 0.0)
		require.LessOrEqual(t, result.ProjectImportance, 1.0)
		require.GreaterOrEqual(t, result.ContributionScore, 0.0)
		require.LessOrEqual(t, result.ContributionScore, 1.0)
	}
}

func TestCalculator_StarsNeverDecreaseProjectImportance(t *testing.T) {
	calc := NewCalculator()
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		p := randomProfile(r)
		if len(p.Repositories) == 0 {
			continue
		}
		before := calc.ProjectImportance(p.Repositories)
		idx := r.Intn(len(p.Repositories))
		p.Repositories[idx].Stars += 1 + r.Intn(5000)
		after := calc.ProjectImportance(p.Repositories)
		require.GreaterOrEqual(t, after, before)
	}
}

func TestCalculator_ActivityCoefficient(t *testing.T) {
	calc := NewCalculator()
	floor := DefaultConstants().Activity.Floor

	testCases := []struct {
		name    string
		profile domain.RawProfile
		check   func(t *testing.T, ac float64)
	}{
		{
			name: "steady activity at collection time is maximal",
			profile: domain.RawProfile{
				Contributions: domain.Contributions{Weekly: uniformWeeks(52, 5), LastActiveAt: collectedAt},
				CollectedAt:   collectedAt,
			},
			check: func(t *testing.T, ac float64) { assert.Equal(t, 1.0, ac) },
		},
		{
			name: "no calendar is neutral",
			profile: domain.RawProfile{
				Contributions: domain.Contributions{LastActiveAt: collectedAt},
				CollectedAt:   collectedAt,
			},
			check: func(t *testing.T, ac float64) { assert.InDelta(t, floor+(1-floor)*0.5, ac, 1e-12) },
		},
		{
			name: "bursty activity scores below steady activity",
			profile: domain.RawProfile{
				Contributions: domain.Contributions{Weekly: []int{0, 0, 50, 0, 1, 0}, LastActiveAt: collectedAt},
				CollectedAt:   collectedAt,
			},
			check: func(t *testing.T, ac float64) {
				assert.Less(t, ac, 0.5)
				assert.Greater(t, ac, floor)
			},
		},
		{
			name: "years of dormancy approach the floor without reaching zero",
			profile: domain.RawProfile{
				Contributions: domain.Contributions{Weekly: uniformWeeks(52, 5), LastActiveAt: collectedAt.AddDate(-6, 0, 0)},
				CollectedAt:   collectedAt,
			},
			check: func(t *testing.T, ac float64) {
				assert.Greater(t, ac, 0.0)
				assert.InDelta(t, floor, ac, 1e-3)
			},
		},
		{
			name: "a recent push to an owned repository counts as activity",
			profile: domain.RawProfile{
				Repositories: []domain.Repository{{FullName: "me/x", Owned: true, PushedAt: collectedAt.Add(-time.Hour)}},
				CollectedAt:  collectedAt,
			},
			check: func(t *testing.T, ac float64) { assert.Greater(t, ac, floor) },
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, calc.ActivityCoefficient(tc.profile))
		})
	}
}

func TestCalculator_PRQualityRewardsMergeRatio(t *testing.T) {
	calc := NewCalculator()
	clean := calc.ContributionScore(domain.Contributions{PullRequests: 10, MergedPullRequests: 10})
	noisy := calc.ContributionScore(domain.Contributions{PullRequests: 40, MergedPullRequests: 10})
	assert.Greater(t, clean, noisy)
	assert.Equal(t, 0.0, calc.ContributionScore(domain.Contributions{PullRequests: 10}))
}

func TestNorm(t *testing.T) {
	assert.Equal(t, 0.0, norm(0, 100))
	assert.Equal(t, 0.0, norm(-5, 100))
	assert.Equal(t, 1.0, norm(100, 100))
	assert.Equal(t, 1.0, norm(1000000, 100))
	assert.InDelta(t, 0.5, norm(10, 120), 0.01)
}
