package gateway

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"

	"github.com/naka-gawa/talentrank/internal/domain"
	"github.com/naka-gawa/talentrank/internal/logger"
)

// maxContributionWindow is the longest span the contributions collection accepts.
const maxContributionWindow = 365 * 24 * time.Hour

const searchDateLayout = "2006-01-02"

type repositoryNode struct {
	NameWithOwner   string
	StargazerCount  int
	ForkCount       int
	IsFork          bool
	Watchers        struct{ TotalCount int }
	PrimaryLanguage *struct{ Name string }
	PushedAt        *githubv4.DateTime
	Owner           struct{ Login string }

	RepositoryTopics struct {
		Nodes []struct {
			Topic struct{ Name string }
		}
	} `graphql:"repositoryTopics(first: 10)"`
}

// contributionsQuery gathers the whole contribution picture in a single call.
// Merged pull requests and resolved issues are not part of the collection, so
// they are counted with aliased issue searches.
type contributionsQuery struct {
	User struct {
		ContributionsCollection struct {
			TotalCommitContributions            int
			TotalPullRequestContributions       int
			TotalPullRequestReviewContributions int
			CommitContributionsByRepository     []struct {
				Repository    repositoryNode
				Contributions struct{ TotalCount int }
			} `graphql:"commitContributionsByRepository(maxRepositories: 100)"`
			ContributionCalendar struct {
				Weeks []struct {
					ContributionDays []struct {
						ContributionCount int
						Date              string
					}
				}
			}
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
	Merged struct {
		IssueCount int
	} `graphql:"merged: search(query: $mergedQuery, type: ISSUE, first: 1)"`
	Resolved struct {
		IssueCount int
	} `graphql:"resolved: search(query: $resolvedQuery, type: ISSUE, first: 1)"`
}

// FetchContributions fetches the activity of login between since and until.
// Authenticated clients use one GraphQL query; the unauthenticated tier falls
// back to REST search counts, which carry no contribution calendar.
func (g *GitHubGateway) FetchContributions(ctx context.Context, login string, since, until time.Time) (ContributionData, error) {
	if until.Sub(since) > maxContributionWindow {
		since = until.Add(-maxContributionWindow)
	}
	if !g.authenticated {
		return g.fetchContributionsREST(ctx, login, since)
	}

	g.logger.Debug(ctx, "fetching contributions via GraphQL", logger.String("login", login))
	var q contributionsQuery
	date := since.UTC().Format(searchDateLayout)
	variables := map[string]interface{}{
		"login":         githubv4.String(login),
		"from":          githubv4.DateTime{Time: since},
		"to":            githubv4.DateTime{Time: until},
		"mergedQuery":   githubv4.String(fmt.Sprintf("author:%s is:pr is:merged created:>=%s", login, date)),
		"resolvedQuery": githubv4.String(fmt.Sprintf("author:%s is:issue is:closed reason:completed closed:>=%s", login, date)),
	}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return ContributionData{}, classify("failed to execute GraphQL query for contributions", err)
	}

	cc := q.User.ContributionsCollection
	data := ContributionData{
		Totals: domain.Contributions{
			Commits:            cc.TotalCommitContributions,
			ResolvedIssues:     q.Resolved.IssueCount,
			PullRequests:       cc.TotalPullRequestContributions,
			MergedPullRequests: q.Merged.IssueCount,
			Reviews:            cc.TotalPullRequestReviewContributions,
		},
	}
	for _, week := range cc.ContributionCalendar.Weeks {
		total := 0
		for _, day := range week.ContributionDays {
			total += day.ContributionCount
			if day.ContributionCount == 0 {
				continue
			}
			if d, err := time.Parse(searchDateLayout, day.Date); err == nil && d.After(data.Totals.LastActiveAt) {
				data.Totals.LastActiveAt = d
			}
		}
		data.Totals.Weekly = append(data.Totals.Weekly, total)
	}
	for _, c := range cc.CommitContributionsByRepository {
		r := c.Repository
		owned := strings.EqualFold(r.Owner.Login, login)
		if r.NameWithOwner == "" || (owned && r.IsFork) {
			continue
		}
		repo := domain.Repository{
			FullName: r.NameWithOwner,
			Owned:    owned,
			Stars:    r.StargazerCount,
			Forks:    r.ForkCount,
			Watchers: r.Watchers.TotalCount,
			Commits:  c.Contributions.TotalCount,
		}
		if r.PrimaryLanguage != nil {
			repo.Language = r.PrimaryLanguage.Name
		}
		if r.PushedAt != nil {
			repo.PushedAt = r.PushedAt.Time
		}
		for _, n := range r.RepositoryTopics.Nodes {
			repo.Topics = append(repo.Topics, n.Topic.Name)
		}
		data.Repositories = append(data.Repositories, repo)
	}
	return data, nil
}

// fetchContributionsREST approximates the contribution picture with search counts.
// Commits are attributed per repository from the most recent page of results.
func (g *GitHubGateway) fetchContributionsREST(ctx context.Context, login string, since time.Time) (ContributionData, error) {
	g.logger.Debug(ctx, "fetching contributions via REST search", logger.String("login", login))
	date := since.UTC().Format(searchDateLayout)

	commitQuery := fmt.Sprintf("author:%s committer-date:>=%s", login, date)
	opts := &github.SearchOptions{Sort: "committer-date", Order: "desc", ListOptions: github.ListOptions{PerPage: 100}}
	result, _, err := g.restClient.Search.Commits(ctx, commitQuery, opts)
	if err != nil {
		return ContributionData{}, classify("failed to search commits with REST API", err)
	}

	var data ContributionData
	data.Totals.Commits = result.GetTotal()
	perRepo := make(map[string]int)
	for _, item := range result.Commits {
		name := item.GetRepository().GetFullName()
		if name == "" {
			continue
		}
		perRepo[name]++
		if d := item.GetCommit().GetCommitter().GetDate().Time; d.After(data.Totals.LastActiveAt) {
			data.Totals.LastActiveAt = d
		}
	}
	names := make([]string, 0, len(perRepo))
	for name := range perRepo {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data.Repositories = append(data.Repositories, domain.Repository{FullName: name, Commits: perRepo[name]})
	}

	counts := []struct {
		query string
		dst   *int
	}{
		{fmt.Sprintf("author:%s is:issue is:closed reason:completed closed:>=%s", login, date), &data.Totals.ResolvedIssues},
		{fmt.Sprintf("author:%s is:pr created:>=%s", login, date), &data.Totals.PullRequests},
		{fmt.Sprintf("author:%s is:pr is:merged created:>=%s", login, date), &data.Totals.MergedPullRequests},
		{fmt.Sprintf("reviewed-by:%s is:pr -author:%s created:>=%s", login, login, date), &data.Totals.Reviews},
	}
	for _, c := range counts {
		issues, _, err := g.restClient.Search.Issues(ctx, c.query, &github.SearchOptions{ListOptions: github.ListOptions{PerPage: 1}})
		if err != nil {
			return ContributionData{}, classify("failed to search issues with REST API", err)
		}
		*c.dst = issues.GetTotal()
	}
	return data, nil
}
