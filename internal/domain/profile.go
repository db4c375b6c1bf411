// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"strings"
	"time"
)

// Subject is the external identifier (GitHub login) of the developer being analyzed.
// It is the immutable key for every downstream entity.
type Subject string

// NewSubject normalises a raw username into a Subject.
// It returns ErrInvalidQuery when nothing is left after trimming.
func NewSubject(raw string) (Subject, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "@")
	if s == "" {
		return "", NewInvalidQueryError("username must not be empty")
	}
	return Subject(s), nil
}

func (s Subject) String() string { return string(s) }

// Key returns the case-folded form used by stores; GitHub logins are case-insensitive.
func (s Subject) Key() string { return strings.ToLower(string(s)) }

// Account holds the profile metadata of a subject.
type Account struct {
	Login       string    `json:"login"`
	Name        string    `json:"name,omitempty"`
	Location    string    `json:"location,omitempty"`
	Company     string    `json:"company,omitempty"`
	Blog        string    `json:"blog,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	PublicRepos int       `json:"public_repos"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Repository is a repository owned by, or contributed to by, the subject.
type Repository struct {
	FullName string    `json:"full_name"`
	Owned    bool      `json:"owned"`
	Stars    int       `json:"stars"`
	Forks    int       `json:"forks"`
	Watchers int       `json:"watchers"`
	Language string    `json:"language,omitempty"`
	Topics   []string  `json:"topics,omitempty"`
	PushedAt time.Time `json:"pushed_at"`
	// Commits is the number of commits the subject contributed to this repository
	// within the collection window.
	Commits int `json:"commits"`
}

// Contributions aggregates the activity attributable to a subject within the
// collection window.
type Contributions struct {
	Commits            int `json:"commits"`
	ResolvedIssues     int `json:"resolved_issues"`
	PullRequests       int `json:"pull_requests"`
	MergedPullRequests int `json:"merged_pull_requests"`
	Reviews            int `json:"reviews"`
	// Weekly holds contribution counts per calendar week, oldest first.
	Weekly       []int     `json:"weekly,omitempty"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// Neighbor is a member of the subject's follower/following network.
type Neighbor struct {
	Login    string `json:"login"`
	Location string `json:"location,omitempty"`
	// Mutual is true when the subject and the neighbor follow each other.
	Mutual bool `json:"mutual"`
}

// RawProfile is the immutable snapshot produced by one collector run.
// It is owned by the computation that fetched it and is never persisted as-is.
type RawProfile struct {
	Subject       Subject
	Account       Account
	Repositories  []Repository
	Contributions Contributions
	// Network may be empty when the optional network fetch failed.
	Network []Neighbor
	// CollectedAt is the reference time for every derived quantity.
	CollectedAt time.Time
}
