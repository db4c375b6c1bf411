// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/naka-gawa/talentrank/internal/domain"
	"github.com/naka-gawa/talentrank/internal/logger"
	"github.com/naka-gawa/talentrank/internal/quota"
)

// ContributionData is the result of a contribution query: window totals plus the
// repositories the subject committed to, annotated with their metadata.
type ContributionData struct {
	Totals       domain.Contributions
	Repositories []domain.Repository
}

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
// Every method issues one or more provider calls, each charged to the quota.
type Fetcher interface {
	FetchAccount(ctx context.Context, login string) (domain.Account, error)
	FetchRepositories(ctx context.Context, login string) ([]domain.Repository, error)
	FetchContributions(ctx context.Context, login string, since, until time.Time) (ContributionData, error)
	FetchNetwork(ctx context.Context, login string) ([]domain.Neighbor, error)
}

// Options configures a GitHubGateway.
type Options struct {
	Token string
	// BaseURL and GraphQLURL override the public endpoints (GitHub Enterprise, tests).
	BaseURL    string
	GraphQLURL string
	// MaxRepoPages bounds the paginated repository listing (100 per page).
	MaxRepoPages int
	// NetworkSize is the number of followers and of followings sampled.
	NetworkSize int
	// RequestsPerSecond paces provider calls; 0 disables pacing.
	RequestsPerSecond float64
	// SecondarySleepLimit is the longest single sleep on a secondary rate limit.
	SecondarySleepLimit time.Duration
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        logger.Logger
	authenticated bool
	maxRepoPages  int
	networkSize   int
}

var _ Fetcher = (*GitHubGateway)(nil)

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// The transport chain is oauth2 (when a token is set) -> secondary-limit waiter ->
// quota gate -> network, so retries by the waiter are charged to the quota too.
func NewGitHubGateway(opts Options, limiter *quota.Limiter, log logger.Logger) (*GitHubGateway, error) {
	var pacer *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		pacer = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	sleepLimit := opts.SecondarySleepLimit
	if sleepLimit <= 0 {
		sleepLimit = time.Minute
	}
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(
		quota.NewTransport(http.DefaultTransport, limiter, pacer),
		github_ratelimit.WithSingleSleepLimit(sleepLimit, nil),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var transport http.RoundTripper = rateLimitWaiter
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}
	}
	httpClient := &http.Client{Transport: transport}

	restClient := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github base url: %w", err)
		}
		restClient.BaseURL = baseURL
	}
	graphqlClient := githubv4.NewClient(httpClient)
	if opts.GraphQLURL != "" {
		graphqlClient = githubv4.NewEnterpriseClient(opts.GraphQLURL, httpClient)
	}

	return newGateway(restClient, graphqlClient, opts, log), nil
}

func newGateway(restClient *github.Client, graphqlClient *githubv4.Client, opts Options, log logger.Logger) *GitHubGateway {
	if opts.MaxRepoPages <= 0 {
		opts.MaxRepoPages = 3
	}
	if opts.NetworkSize <= 0 {
		opts.NetworkSize = 50
	}
	if opts.NetworkSize > 100 {
		opts.NetworkSize = 100
	}
	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        log.Named("gateway"),
		authenticated: opts.Token != "",
		maxRepoPages:  opts.MaxRepoPages,
		networkSize:   opts.NetworkSize,
	}
}

// FetchAccount fetches the profile metadata of login.
func (g *GitHubGateway) FetchAccount(ctx context.Context, login string) (domain.Account, error) {
	g.logger.Debug(ctx, "fetching account", logger.String("login", login))
	user, _, err := g.restClient.Users.Get(ctx, login)
	if err != nil {
		return domain.Account{}, classify("failed to fetch account", err)
	}
	return domain.Account{
		Login:       user.GetLogin(),
		Name:        user.GetName(),
		Location:    user.GetLocation(),
		Company:     user.GetCompany(),
		Blog:        user.GetBlog(),
		Bio:         user.GetBio(),
		Followers:   user.GetFollowers(),
		Following:   user.GetFollowing(),
		PublicRepos: user.GetPublicRepos(),
		CreatedAt:   user.GetCreatedAt().Time,
		UpdatedAt:   user.GetUpdatedAt().Time,
	}, nil
}

// FetchRepositories lists the non-fork repositories owned by login, most recently
// pushed first, up to MaxRepoPages pages.
func (g *GitHubGateway) FetchRepositories(ctx context.Context, login string) ([]domain.Repository, error) {
	g.logger.Debug(ctx, "fetching repositories", logger.String("login", login))
	opts := &github.RepositoryListByUserOptions{
		Type:        "owner",
		Sort:        "pushed",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	repos := make([]domain.Repository, 0)
	for page := 0; page < g.maxRepoPages; page++ {
		result, resp, err := g.restClient.Repositories.ListByUser(ctx, login, opts)
		if err != nil {
			return nil, classify("failed to list repositories", err)
		}
		for _, r := range result {
			if r.GetFork() {
				continue
			}
			repos = append(repos, domain.Repository{
				FullName: r.GetFullName(),
				Owned:    true,
				Stars:    r.GetStargazersCount(),
				Forks:    r.GetForksCount(),
				Watchers: r.GetWatchersCount(),
				Language: r.GetLanguage(),
				Topics:   append([]string(nil), r.Topics...),
				PushedAt: r.GetPushedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Debug(ctx, "fetching next page of repositories", logger.Int("page", resp.NextPage))
	}
	return repos, nil
}

// FetchNetwork samples followers and followings of login together with their
// declared locations. The GraphQL API requires a token, so without one the
// network is reported empty.
func (g *GitHubGateway) FetchNetwork(ctx context.Context, login string) ([]domain.Neighbor, error) {
	if !g.authenticated {
		g.logger.Debug(ctx, "network inference needs an authenticated client; skipping", logger.String("login", login))
		return nil, nil
	}
	var q networkQuery
	variables := map[string]interface{}{
		"login": githubv4.String(login),
		"first": githubv4.Int(g.networkSize),
	}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, classify("failed to execute GraphQL query for network", err)
	}
	return mergeNetwork(q), nil
}

func mergeNetwork(q networkQuery) []domain.Neighbor {
	following := make(map[string]bool, len(q.User.Following.Nodes))
	for _, n := range q.User.Following.Nodes {
		following[n.Login] = true
	}
	seen := make(map[string]bool)
	neighbors := make([]domain.Neighbor, 0, len(q.User.Followers.Nodes)+len(q.User.Following.Nodes))
	add := func(n networkNode, mutual bool) {
		if n.Login == "" || seen[n.Login] {
			return
		}
		seen[n.Login] = true
		loc := ""
		if n.Location != nil {
			loc = *n.Location
		}
		neighbors = append(neighbors, domain.Neighbor{Login: n.Login, Location: loc, Mutual: mutual})
	}
	for _, n := range q.User.Followers.Nodes {
		add(n, following[n.Login])
	}
	for _, n := range q.User.Following.Nodes {
		add(n, false)
	}
	return neighbors
}

type networkNode struct {
	Login    string
	Location *string
}

// networkQuery fetches both directions of the follow graph in one call.
type networkQuery struct {
	User struct {
		Followers struct {
			Nodes []networkNode
		} `graphql:"followers(first: $first)"`
		Following struct {
			Nodes []networkNode
		} `graphql:"following(first: $first)"`
	} `graphql:"user(login: $login)"`
}
