// Package symptoms narrows a provider list to specialists relevant to a
// free-text symptom description.
package symptoms

import (
	"sort"
	"strings"

	"github.com/wolfman30/healthhub-platform/internal/domain"
)

// MaxResults bounds the number of providers returned by Classify.
const MaxResults = 6

// Outcome describes which branch a classification took.
type Outcome string

const (
	OutcomeEmpty    Outcome = "empty"
	OutcomeMatched  Outcome = "matched"
	OutcomeFallback Outcome = "fallback"
)

// Classifier matches symptom text against an injected keyword dictionary.
type Classifier struct {
	dict  Dictionary
	limit int
}

// NewClassifier builds a classifier over dict. A nil dict uses the built-in
// table.
func NewClassifier(dict Dictionary) *Classifier {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Classifier{dict: dict, limit: MaxResults}
}

// Result is a classification with its diagnostic detail.
type Result struct {
	Providers []domain.Provider `json:"providers"`
	Tags      []string          `json:"matched_specialties"`
	Outcome   Outcome           `json:"outcome"`
}

// Classify returns at most six providers relevant to text, most experienced
// first. Blank text yields an empty slice. When no keyword matches, every
// provider is a candidate.
func (c *Classifier) Classify(text string, providers []domain.Provider) []domain.Provider {
	return c.Explain(text, providers).Providers
}

// Explain is Classify plus the matched tags and the branch taken.
func (c *Classifier) Explain(text string, providers []domain.Provider) Result {
	text = strings.ToLower(text)
	if strings.TrimSpace(text) == "" {
		return Result{Providers: []domain.Provider{}, Tags: []string{}, Outcome: OutcomeEmpty}
	}

	tags := c.Match(text)
	outcome := OutcomeMatched

	var kept []domain.Provider
	if len(tags) == 0 {
		outcome = OutcomeFallback
		kept = make([]domain.Provider, len(providers))
		copy(kept, providers)
	} else {
		kept = make([]domain.Provider, 0, len(providers))
		for _, p := range providers {
			if matchesAny(strings.ToLower(p.Specialization), tags) {
				kept = append(kept, p)
			}
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].ExperienceYears > kept[j].ExperienceYears
	})
	if len(kept) > c.limit {
		kept = kept[:c.limit]
	}
	return Result{Providers: kept, Tags: tags, Outcome: outcome}
}

// Keywords returns the sorted symptom keywords the classifier recognizes.
func (c *Classifier) Keywords() []string {
	return c.dict.Keywords()
}

// Match returns the sorted, de-duplicated specialty tags whose keywords occur
// in text.
func (c *Classifier) Match(text string) []string {
	text = strings.ToLower(text)
	seen := make(map[string]struct{})
	for keyword, tags := range c.dict {
		if !strings.Contains(text, keyword) {
			continue
		}
		for _, tag := range tags {
			seen[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func matchesAny(specialization string, tags []string) bool {
	for _, tag := range tags {
		if strings.Contains(specialization, tag) {
			return true
		}
	}
	return false
}
