// Package techdomain classifies a developer into technical domains.
package techdomain

import (
	"strings"

	"github.com/naka-gawa/talentrank/internal/domain"
	"github.com/naka-gawa/talentrank/internal/scoring"
)

// baseWeight keeps repositories without any popularity in the aggregate.
const baseWeight = 0.01

// Classifier derives a DomainEstimate from repository languages and topics.
type Classifier struct {
	calc *scoring.Calculator
}

// NewClassifier creates a Classifier weighting repositories with calc.
func NewClassifier(calc *scoring.Calculator) *Classifier {
	return &Classifier{calc: calc}
}

// Classify returns the weighted domain distribution of profile. Each repository
// contributes its importance, split evenly over the domains it maps to.
// Repositories that map to no domain are left out; with none left the
// estimate is empty.
func (c *Classifier) Classify(profile domain.RawProfile) domain.DomainEstimate {
	scores := make(domain.DomainEstimate)
	total := 0.0
	for _, r := range profile.Repositories {
		domains := RepositoryDomains(r)
		if len(domains) == 0 {
			continue
		}
		w := c.calc.RepositoryImportance(r) + baseWeight
		share := w / float64(len(domains))
		for _, d := range domains {
			scores[d] += share
		}
		total += w
	}
	if total == 0 {
		return domain.DomainEstimate{}
	}
	for d := range scores {
		scores[d] /= total
	}
	return scores
}

// RepositoryDomains returns the distinct domains signalled by the language and
// topics of r, in taxonomy order.
func RepositoryDomains(r domain.Repository) []string {
	found := make(map[string]bool)
	for _, d := range languageDomains[strings.ToLower(strings.TrimSpace(r.Language))] {
		found[d] = true
	}
	for _, topic := range r.Topics {
		tokens := strings.FieldsFunc(strings.ToLower(topic), func(c rune) bool { return c == '-' || c == '_' || c == ' ' })
		for d, keywords := range topicKeywords {
			if found[d] {
				continue
			}
			for _, kw := range keywords {
				if containsRun(tokens, strings.Split(kw, "-")) {
					found[d] = true
					break
				}
			}
		}
	}
	domains := make([]string, 0, len(found))
	for _, label := range Labels {
		if found[label] {
			domains = append(domains, label)
		}
	}
	return domains
}

func containsRun(tokens, run []string) bool {
	for i := 0; i+len(run) <= len(tokens); i++ {
		matched := true
		for j := range run {
			if tokens[i+j] != run[j] {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}
