package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/talentrank/internal/domain"
	"github.com/naka-gawa/talentrank/internal/logger"
	"github.com/naka-gawa/talentrank/internal/quota"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler, opts Options) *GitHubGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	graphqlClient := githubv4.NewEnterpriseClient(server.URL+"/graphql", server.Client())
	return newGateway(restClient, graphqlClient, opts, logger.Nop())
}

var authenticated = Options{Token: "test-token"}

func TestGitHubGateway_FetchAccount(t *testing.T) {
	testCases := []struct {
		name        string
		handlerFunc func(w http.ResponseWriter, r *http.Request)
		expected    domain.Account
		expectedErr error
	}{
		{
			name: "happy path - profile is mapped",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/users/octocat", r.URL.Path)
				fmt.Fprint(w, `{"login":"octocat","name":"The Octocat","location":"San Francisco","followers":20,"following":3,"public_repos":8,"created_at":"2011-01-25T18:44:36Z"}`)
			},
			expected: domain.Account{
				Login:       "octocat",
				Name:        "The Octocat",
				Location:    "San Francisco",
				Followers:   20,
				Following:   3,
				PublicRepos: 8,
				CreatedAt:   time.Date(2011, 1, 25, 18, 44, 36, 0, time.UTC),
			},
		},
		{
			name: "unknown user maps to subject not found",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message":"Not Found"}`)
			},
			expectedErr: domain.ErrSubjectNotFound,
		},
		{
			name: "server failure maps to upstream unavailable",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				fmt.Fprint(w, `{"message":"Bad Gateway"}`)
			},
			expectedErr: domain.ErrUpstreamUnavailable,
		},
		{
			name: "exhausted provider budget maps to quota exhausted",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-RateLimit-Limit", "60")
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprint(w, `{"message":"API rate limit exceeded for 127.0.0.1."}`)
			},
			expectedErr: domain.ErrQuotaExhausted,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc), Options{})
			account, err := gateway.FetchAccount(context.Background(), "octocat")
			if tc.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Contains(t, err.Error(), "failed to fetch account")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, account)
		})
	}
}

func TestGitHubGateway_FetchRepositories(t *testing.T) {
	pages := map[string]string{
		"":  `[{"full_name":"octocat/hello","stargazers_count":10,"forks_count":2,"watchers_count":10,"language":"Go","topics":["cli"]},{"full_name":"octocat/fork","fork":true}]`,
		"2": `[{"full_name":"octocat/site","stargazers_count":1,"language":"TypeScript"}]`,
		"3": `[{"full_name":"octocat/never"}]`,
	}
	var serverURL string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat/repos", r.URL.Path)
		assert.Equal(t, "owner", r.URL.Query().Get("type"))
		page := r.URL.Query().Get("page")
		next, _ := strconv.Atoi(page)
		if next == 0 {
			next = 1
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/users/octocat/repos?type=owner&page=%d>; rel="next"`, serverURL, next+1))
		fmt.Fprint(w, pages[page])
	})
	server := httptest.NewServer(handler)
	defer server.Close()
	serverURL = server.URL

	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL
	gateway := newGateway(restClient, nil, Options{MaxRepoPages: 2}, logger.Nop())

	repos, err := gateway.FetchRepositories(context.Background(), "octocat")
	require.NoError(t, err)
	require.Len(t, repos, 2, "forks are skipped and the page cap is honoured")
	assert.Equal(t, "octocat/hello", repos[0].FullName)
	assert.True(t, repos[0].Owned)
	assert.Equal(t, 10, repos[0].Stars)
	assert.Equal(t, []string{"cli"}, repos[0].Topics)
	assert.Equal(t, "octocat/site", repos[1].FullName)
}

func TestGitHubGateway_FetchContributionsGraphQL(t *testing.T) {
	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	until := since.AddDate(1, 0, 0)

	testCases := []struct {
		name           string
		statusCode     int
		responseBody   string
		expectError    error
		expectedErrMsg string
	}{
		{
			name:       "happy path",
			statusCode: http.StatusOK,
			responseBody: `{"data":{"user":{"contributionsCollection":{
				"totalCommitContributions":50,
				"totalPullRequestContributions":5,
				"totalPullRequestReviewContributions":8,
				"commitContributionsByRepository":[
					{"repository":{"nameWithOwner":"octocat/hello","stargazerCount":1000,"forkCount":200,"isFork":false,
						"watchers":{"totalCount":150},"primaryLanguage":{"name":"Go"},"pushedAt":"2026-02-01T00:00:00Z",
						"owner":{"login":"octocat"},"repositoryTopics":{"nodes":[{"topic":{"name":"kubernetes"}}]}},
					 "contributions":{"totalCount":45}},
					{"repository":{"nameWithOwner":"other/lib","stargazerCount":3,"forkCount":0,"isFork":false,
						"watchers":{"totalCount":1},"primaryLanguage":null,"pushedAt":null,
						"owner":{"login":"other"},"repositoryTopics":{"nodes":[]}},
					 "contributions":{"totalCount":5}}
				],
				"contributionCalendar":{"weeks":[
					{"contributionDays":[{"contributionCount":2,"date":"2026-02-15"},{"contributionCount":1,"date":"2026-02-16"}]},
					{"contributionDays":[{"contributionCount":0,"date":"2026-02-22"},{"contributionCount":4,"date":"2026-02-27"}]}
				]}}},
				"merged":{"issueCount":5},
				"resolved":{"issueCount":10}}}`,
		},
		{
			name:           "unknown user",
			statusCode:     http.StatusOK,
			responseBody:   `{"errors":[{"type":"NOT_FOUND","message":"Could not resolve to a User with the login of 'ghost'."}]}`,
			expectError:    domain.ErrSubjectNotFound,
			expectedErrMsg: "failed to execute GraphQL query for contributions",
		},
		{
			name:           "provider outage",
			statusCode:     http.StatusServiceUnavailable,
			responseBody:   `unavailable`,
			expectError:    domain.ErrUpstreamUnavailable,
			expectedErrMsg: "failed to execute GraphQL query for contributions",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), "contributionsCollection(from: $from, to: $to)")
				assert.Contains(t, string(body), "author:octocat is:pr is:merged created:")
				w.WriteHeader(tc.statusCode)
				fmt.Fprint(w, tc.responseBody)
			}
			gateway := setupTestGateway(t, http.HandlerFunc(handler), authenticated)

			data, err := gateway.FetchContributions(context.Background(), "octocat", since, until)
			if tc.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectError)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.Contributions{
				Commits:            50,
				ResolvedIssues:     10,
				PullRequests:       5,
				MergedPullRequests: 5,
				Reviews:            8,
				Weekly:             []int{3, 4},
				LastActiveAt:       time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC),
			}, data.Totals)
			require.Len(t, data.Repositories, 2)
			assert.Equal(t, domain.Repository{
				FullName: "octocat/hello",
				Owned:    true,
				Stars:    1000,
				Forks:    200,
				Watchers: 150,
				Language: "Go",
				Topics:   []string{"kubernetes"},
				PushedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
				Commits:  45,
			}, data.Repositories[0])
			assert.False(t, data.Repositories[1].Owned)
			assert.Empty(t, data.Repositories[1].Language)
		})
	}
}

func TestGitHubGateway_FetchContributionsREST(t *testing.T) {
	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	totals := map[string]int{
		"author:octocat is:issue is:closed reason:completed closed:>=2025-03-01": 10,
		"author:octocat is:pr created:>=2025-03-01":                              6,
		"author:octocat is:pr is:merged created:>=2025-03-01":                    5,
		"reviewed-by:octocat is:pr -author:octocat created:>=2025-03-01":         8,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/search/commits", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "author:octocat committer-date:>=2025-03-01", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"total_count": 42, "items": [
			{"repository": {"full_name": "org/repo-a"}, "commit": {"committer": {"date": "2026-02-10T12:00:00Z"}}},
			{"repository": {"full_name": "org/repo-b"}, "commit": {"committer": {"date": "2026-02-01T12:00:00Z"}}},
			{"repository": {"full_name": "org/repo-a"}, "commit": {"committer": {"date": "2026-01-10T12:00:00Z"}}}]}`)
	})
	mux.HandleFunc("/search/issues", func(w http.ResponseWriter, r *http.Request) {
		total, ok := totals[r.URL.Query().Get("q")]
		assert.True(t, ok, "unexpected query %q", r.URL.Query().Get("q"))
		fmt.Fprintf(w, `{"total_count": %d, "items": []}`, total)
	})
	gateway := setupTestGateway(t, mux, Options{})

	data, err := gateway.FetchContributions(context.Background(), "octocat", since, since.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 42, data.Totals.Commits)
	assert.Equal(t, 10, data.Totals.ResolvedIssues)
	assert.Equal(t, 6, data.Totals.PullRequests)
	assert.Equal(t, 5, data.Totals.MergedPullRequests)
	assert.Equal(t, 8, data.Totals.Reviews)
	assert.Nil(t, data.Totals.Weekly)
	assert.Equal(t, time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC), data.Totals.LastActiveAt.UTC())
	assert.Equal(t, []domain.Repository{
		{FullName: "org/repo-a", Commits: 2},
		{FullName: "org/repo-b", Commits: 1},
	}, data.Repositories)
}

func TestGitHubGateway_FetchNetwork(t *testing.T) {
	t.Run("mutual followers are flagged", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), "followers(first: $first)")
			fmt.Fprint(w, `{"data":{"user":{
				"followers":{"nodes":[{"login":"alice","location":"Berlin"},{"login":"bob","location":null}]},
				"following":{"nodes":[{"login":"alice","location":"Berlin"},{"login":"carol","location":"Tokyo"}]}}}}`)
		}
		gateway := setupTestGateway(t, http.HandlerFunc(handler), authenticated)

		network, err := gateway.FetchNetwork(context.Background(), "octocat")
		require.NoError(t, err)
		assert.Equal(t, []domain.Neighbor{
			{Login: "alice", Location: "Berlin", Mutual: true},
			{Login: "bob"},
			{Login: "carol", Location: "Tokyo"},
		}, network)
	})

	t.Run("unauthenticated clients skip the network", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
		gateway := setupTestGateway(t, http.HandlerFunc(handler), Options{})

		network, err := gateway.FetchNetwork(context.Background(), "octocat")
		require.NoError(t, err)
		assert.Empty(t, network)
	})
}

func TestNewGitHubGateway_ChargesQuota(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"login":"octocat"}`)
	}))
	defer server.Close()

	limiter := quota.New(quota.Authenticated, quota.WithCeiling(1))
	gateway, err := NewGitHubGateway(Options{Token: "secret", BaseURL: server.URL}, limiter, logger.Nop())
	require.NoError(t, err)

	_, err = gateway.FetchAccount(context.Background(), "octocat")
	require.NoError(t, err)
	_, err = gateway.FetchAccount(context.Background(), "octocat")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuotaExhausted)
	assert.Equal(t, 1, hits, "no request is issued once the budget is spent")
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected error
	}{
		{"graphql not found", errors.New("Could not resolve to a User with the login of 'x'."), domain.ErrSubjectNotFound},
		{"graphql rate limited", errors.New("API rate limit exceeded for user ID 1."), domain.ErrQuotaExhausted},
		{"graphql bad gateway", errors.New("non-200 OK status code: 502 Bad Gateway body: \"\""), domain.ErrUpstreamUnavailable},
		{"local quota", &domain.QuotaError{ResetAt: time.Now()}, domain.ErrQuotaExhausted},
		{"cancellation", context.Canceled, context.Canceled},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := classify("op", tc.err)
			assert.ErrorIs(t, err, tc.expected)
			assert.True(t, strings.HasPrefix(err.Error(), "op: "))
		})
	}
	assert.NoError(t, classify("op", nil))
}
