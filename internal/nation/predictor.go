// Package nation estimates the country of a developer from location signals.
package nation

import (
	"sort"
	"strings"
	"unicode"

	"github.com/naka-gawa/talentrank/internal/domain"
)

// Confidence levels.
const (
	CountryConfidence = 0.95
	CityConfidence    = 0.85
	// NetworkConfidence is the confidence of a unanimous network.
	NetworkConfidence = 0.6
)

type level int

const (
	levelCity level = iota
	levelCountry
)

type phrase struct {
	tokens []string
	code   string
	level  level
}

type match struct {
	code  string
	level level
	end   int
	size  int
}

// Predictor maps free-form locations to countries. It is immutable once built
// and safe for concurrent use.
type Predictor struct {
	// phrases indexed by their first token
	phrases map[string][]phrase
	names   map[string]string
}

// NewPredictor builds a Predictor over the built-in location table.
func NewPredictor() *Predictor {
	p := &Predictor{
		phrases: make(map[string][]phrase),
		names:   make(map[string]string, len(countries)),
	}
	for _, c := range countries {
		p.names[c.Code] = c.Name
		p.add(c.Code, levelCountry, c.Name)
		for _, a := range c.Aliases {
			p.add(c.Code, levelCountry, a)
		}
		for _, city := range c.Cities {
			p.add(c.Code, levelCity, city)
		}
	}
	return p
}

func (p *Predictor) add(code string, lvl level, text string) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return
	}
	p.phrases[tokens[0]] = append(p.phrases[tokens[0]], phrase{tokens: tokens, code: code, level: lvl})
}

// Predict estimates the country of the subject of profile. The declared
// location wins; without it the network majority is used. When neither gives
// a signal the result is the unknown sentinel with confidence 0.
func (p *Predictor) Predict(profile domain.RawProfile) domain.NationEstimate {
	if code, confidence, ok := p.Resolve(profile.Account.Location); ok {
		return p.estimate(code, confidence, domain.NationFromLocation)
	}
	return p.fromNetwork(profile.Network)
}

// Resolve maps a location string to a country code and the confidence of a
// direct match. A phrase inside a longer phrase of another country is ignored
// ("New South Wales" is not Wales). Otherwise a country named in the string
// beats any city; among equals the rightmost, then longest, match wins.
func (p *Predictor) Resolve(location string) (code string, confidence float64, ok bool) {
	tokens := tokenize(location)
	var found []match
	for i, tok := range tokens {
		for _, ph := range p.phrases[tok] {
			if hasPrefix(tokens[i:], ph.tokens) {
				found = append(found, match{code: ph.code, level: ph.level, end: i + len(ph.tokens), size: len(ph.tokens)})
			}
		}
	}
	if usState(location) {
		found = append(found, match{code: "US", level: levelCity, end: len(tokens), size: 1})
	}

	var best *match
	for i, m := range found {
		if shadowed(m, found) {
			continue
		}
		if best == nil || better(m, *best) {
			best = &found[i]
		}
	}
	if best == nil {
		return "", 0, false
	}
	if best.level == levelCountry {
		return best.code, CountryConfidence, true
	}
	return best.code, CityConfidence, true
}

// usState reports whether the last comma-separated part of location is an
// unambiguous US state abbreviation, as in "Paris, TX".
func usState(location string) bool {
	i := strings.LastIndexByte(location, ',')
	if i < 0 {
		return false
	}
	return usStates[strings.ToLower(strings.TrimSpace(location[i+1:]))]
}

// shadowed reports whether m lies inside a longer match of another country.
func shadowed(m match, all []match) bool {
	for _, o := range all {
		if o.code == m.code || o.size <= m.size {
			continue
		}
		if o.end-o.size <= m.end-m.size && m.end <= o.end {
			return true
		}
	}
	return false
}

func better(a, b match) bool {
	if a.level != b.level {
		return a.level > b.level
	}
	if a.end != b.end {
		return a.end > b.end
	}
	return a.size > b.size
}

// fromNetwork takes the majority country among neighbours, preferring mutual
// follows when any of them has a resolvable location.
func (p *Predictor) fromNetwork(network []domain.Neighbor) domain.NationEstimate {
	var mutual, all []string
	for _, n := range network {
		code, _, ok := p.Resolve(n.Location)
		if !ok {
			continue
		}
		all = append(all, code)
		if n.Mutual {
			mutual = append(mutual, code)
		}
	}
	votes := all
	if len(mutual) > 0 {
		votes = mutual
	}
	if len(votes) == 0 {
		return domain.UnknownNation()
	}

	counts := make(map[string]int)
	for _, code := range votes {
		counts[code]++
	}
	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if counts[codes[i]] != counts[codes[j]] {
			return counts[codes[i]] > counts[codes[j]]
		}
		return codes[i] < codes[j]
	})
	winner := codes[0]
	agreement := float64(counts[winner]) / float64(len(votes))
	return p.estimate(winner, NetworkConfidence*agreement, domain.NationFromNetwork)
}

func (p *Predictor) estimate(code string, confidence float64, source domain.NationSource) domain.NationEstimate {
	return domain.NationEstimate{
		CountryCode: code,
		Country:     p.names[code],
		Confidence:  confidence,
		Source:      source,
	}
}

// tokenize lower-cases s and splits it into words; every rune that is neither
// a letter, a digit nor an apostrophe separates words.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func hasPrefix(tokens, prefix []string) bool {
	if len(prefix) > len(tokens) {
		return false
	}
	for i := range prefix {
		if tokens[i] != prefix[i] {
			return false
		}
	}
	return true
}
