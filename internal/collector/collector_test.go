package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/talentrank/internal/domain"
	"github.com/naka-gawa/talentrank/internal/gateway"
	"github.com/naka-gawa/talentrank/internal/logger"
	"github.com/naka-gawa/talentrank/internal/metrics"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchAccount(ctx context.Context, login string) (domain.Account, error) {
	args := m.Called(ctx, login)
	return args.Get(0).(domain.Account), args.Error(1)
}

func (m *mockFetcher) FetchRepositories(ctx context.Context, login string) ([]domain.Repository, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Repository), args.Error(1)
}

func (m *mockFetcher) FetchContributions(ctx context.Context, login string, since, until time.Time) (gateway.ContributionData, error) {
	args := m.Called(ctx, login, since, until)
	return args.Get(0).(gateway.ContributionData), args.Error(1)
}

func (m *mockFetcher) FetchNetwork(ctx context.Context, login string) ([]domain.Neighbor, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Neighbor), args.Error(1)
}

var (
	now    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	window = 365 * 24 * time.Hour
	since  = now.Add(-window)
)

func newTestCollector(f gateway.Fetcher) *Collector {
	cfg := Config{
		Concurrency: 3,
		Window:      window,
		Retry:       RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2},
	}
	return New(f, cfg, logger.Nop(), WithClock(func() time.Time { return now }), WithMetrics(metrics.NewManager()))
}

func TestCollector_Fetch(t *testing.T) {
	upstream := errors.New("upstream")
	unavailable := func() error { return errors.Join(domain.ErrUpstreamUnavailable, upstream) }

	testCases := []struct {
		name   string
		setup  func(f *mockFetcher)
		verify func(t *testing.T, f *mockFetcher, profile domain.RawProfile, err error)
	}{
		{
			name: "happy path - owned and contributed repositories are merged",
			setup: func(f *mockFetcher) {
				f.On("FetchAccount", mock.Anything, "octocat").Return(domain.Account{Login: "octocat", Location: "Berlin"}, nil)
				f.On("FetchRepositories", mock.Anything, "octocat").Return([]domain.Repository{
					{FullName: "octocat/hello", Owned: true, Stars: 10, Language: "Go"},
					{FullName: "octocat/site", Owned: true, Stars: 1},
				}, nil)
				f.On("FetchContributions", mock.Anything, "octocat", since, now).Return(gateway.ContributionData{
					Totals: domain.Contributions{Commits: 30, Weekly: []int{1, 2}},
					Repositories: []domain.Repository{
						{FullName: "Octocat/Hello", Owned: true, Stars: 10, Commits: 25},
						{FullName: "acme/lib", Stars: 3, Commits: 5},
					},
				}, nil)
				f.On("FetchNetwork", mock.Anything, "octocat").Return([]domain.Neighbor{{Login: "alice", Mutual: true}}, nil)
			},
			verify: func(t *testing.T, f *mockFetcher, profile domain.RawProfile, err error) {
				require.NoError(t, err)
				assert.Equal(t, domain.Subject("octocat"), profile.Subject)
				assert.Equal(t, now, profile.CollectedAt)
				assert.Equal(t, "Berlin", profile.Account.Location)
				assert.Equal(t, 30, profile.Contributions.Commits)
				assert.Equal(t, []domain.Repository{
					{FullName: "acme/lib", Stars: 3, Commits: 5},
					{FullName: "octocat/hello", Owned: true, Stars: 10, Language: "Go", Commits: 25},
					{FullName: "octocat/site", Owned: true, Stars: 1},
				}, profile.Repositories)
				assert.Len(t, profile.Network, 1)
			},
		},
		{
			name: "unknown subject stops after the account call",
			setup: func(f *mockFetcher) {
				f.On("FetchAccount", mock.Anything, "octocat").Return(domain.Account{}, domain.ErrSubjectNotFound)
			},
			verify: func(t *testing.T, f *mockFetcher, _ domain.RawProfile, err error) {
				assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
				f.AssertNumberOfCalls(t, "FetchAccount", 1)
				f.AssertNotCalled(t, "FetchRepositories", mock.Anything, mock.Anything)
				f.AssertNotCalled(t, "FetchNetwork", mock.Anything, mock.Anything)
			},
		},
		{
			name: "network failure degrades to an empty network",
			setup: func(f *mockFetcher) {
				f.On("FetchAccount", mock.Anything, "octocat").Return(domain.Account{Login: "octocat"}, nil)
				f.On("FetchRepositories", mock.Anything, "octocat").Return([]domain.Repository{}, nil)
				f.On("FetchContributions", mock.Anything, "octocat", since, now).Return(gateway.ContributionData{}, nil)
				f.On("FetchNetwork", mock.Anything, "octocat").Return(nil, unavailable())
			},
			verify: func(t *testing.T, f *mockFetcher, profile domain.RawProfile, err error) {
				require.NoError(t, err)
				assert.Empty(t, profile.Network)
				f.AssertNumberOfCalls(t, "FetchNetwork", 1)
			},
		},
		{
			name: "network quota exhaustion is propagated",
			setup: func(f *mockFetcher) {
				f.On("FetchAccount", mock.Anything, "octocat").Return(domain.Account{Login: "octocat"}, nil)
				f.On("FetchRepositories", mock.Anything, "octocat").Return([]domain.Repository{}, nil)
				f.On("FetchContributions", mock.Anything, "octocat", since, now).Return(gateway.ContributionData{}, nil)
				f.On("FetchNetwork", mock.Anything, "octocat").Return(nil, &domain.QuotaError{ResetAt: now.Add(time.Hour)})
			},
			verify: func(t *testing.T, f *mockFetcher, _ domain.RawProfile, err error) {
				assert.ErrorIs(t, err, domain.ErrQuotaExhausted)
				resetAt, ok := domain.ResetAtOf(err)
				assert.True(t, ok)
				assert.Equal(t, now.Add(time.Hour), resetAt)
			},
		},
		{
			name: "transient repository failures are retried",
			setup: func(f *mockFetcher) {
				f.On("FetchAccount", mock.Anything, "octocat").Return(domain.Account{Login: "octocat"}, nil)
				f.On("FetchRepositories", mock.Anything, "octocat").Return(nil, unavailable()).Twice()
				f.On("FetchRepositories", mock.Anything, "octocat").Return([]domain.Repository{{FullName: "octocat/hello", Owned: true}}, nil).Once()
				f.On("FetchContributions", mock.Anything, "octocat", since, now).Return(gateway.ContributionData{}, nil)
				f.On("FetchNetwork", mock.Anything, "octocat").Return([]domain.Neighbor{}, nil)
			},
			verify: func(t *testing.T, f *mockFetcher, profile domain.RawProfile, err error) {
				require.NoError(t, err)
				assert.Len(t, profile.Repositories, 1)
				f.AssertNumberOfCalls(t, "FetchRepositories", 3)
			},
		},
		{
			name: "persistent upstream failure of a required fetch fails the collection",
			setup: func(f *mockFetcher) {
				f.On("FetchAccount", mock.Anything, "octocat").Return(domain.Account{Login: "octocat"}, nil)
				f.On("FetchRepositories", mock.Anything, "octocat").Return([]domain.Repository{}, nil).Maybe()
				f.On("FetchContributions", mock.Anything, "octocat", since, now).Return(gateway.ContributionData{}, unavailable())
				f.On("FetchNetwork", mock.Anything, "octocat").Return([]domain.Neighbor{}, nil).Maybe()
			},
			verify: func(t *testing.T, f *mockFetcher, _ domain.RawProfile, err error) {
				assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
				assert.Contains(t, err.Error(), "contributions")
				f.AssertNumberOfCalls(t, "FetchContributions", 3)
			},
		},
		{
			name: "quota exhaustion of a required fetch is not retried",
			setup: func(f *mockFetcher) {
				f.On("FetchAccount", mock.Anything, "octocat").Return(domain.Account{}, &domain.QuotaError{ResetAt: now})
			},
			verify: func(t *testing.T, f *mockFetcher, _ domain.RawProfile, err error) {
				assert.ErrorIs(t, err, domain.ErrQuotaExhausted)
				f.AssertNumberOfCalls(t, "FetchAccount", 1)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := new(mockFetcher)
			tc.setup(f)

			profile, err := newTestCollector(f).Fetch(context.Background(), "octocat")
			tc.verify(t, f, profile, err)
		})
	}
}

func TestCollector_FetchCancelled(t *testing.T) {
	f := new(mockFetcher)
	ctx, cancel := context.WithCancel(context.Background())
	f.On("FetchAccount", mock.Anything, "octocat").Run(func(mock.Arguments) { cancel() }).
		Return(domain.Account{}, errors.Join(domain.ErrUpstreamUnavailable, context.Canceled))

	_, err := newTestCollector(f).Fetch(ctx, "octocat")
	assert.ErrorIs(t, err, context.Canceled)
	f.AssertNumberOfCalls(t, "FetchAccount", 1)
}

func TestBackoff(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2}
	assert.Equal(t, 100*time.Millisecond, backoff(cfg, 0))
	assert.Equal(t, 200*time.Millisecond, backoff(cfg, 1))
	assert.Equal(t, 400*time.Millisecond, backoff(cfg, 2))
	assert.Equal(t, time.Second, backoff(cfg, 5), "delay is capped")

	cfg.JitterEnabled = true
	for i := 0; i < 20; i++ {
		d := backoff(cfg, 1)
		assert.GreaterOrEqual(t, d, 200*time.Millisecond)
		assert.Less(t, d, 220*time.Millisecond)
	}
}
