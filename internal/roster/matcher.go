package roster

import (
	"strings"

	"eduparser/pkg/models"
)

// Matcher resolves education records to roster employees by exact
// normalized-name comparison. Fuzzy matching is deliberately out: a wrong
// employee number on an HR upload is worse than an unmatched row.
type Matcher struct {
	roster *Roster
}

// NewMatcher creates a matcher over a loaded roster.
func NewMatcher(r *Roster) *Matcher {
	return &Matcher{roster: r}
}

// Match looks up an extracted person name in the roster. A miss returns a
// result with Confidence "none" and a nil Employee. When several employees
// share the normalized name, the first one wins and Ambiguous is set so the
// operator can review the row.
func (m *Matcher) Match(name string) models.MatchResult {
	key := NormalizeName(name)
	if key == "" {
		return models.MatchResult{Confidence: models.MatchNone}
	}

	candidates := m.roster.byNorm[key]
	if len(candidates) == 0 {
		return models.MatchResult{Confidence: models.MatchNone}
	}

	return models.MatchResult{
		Employee:   candidates[0],
		Confidence: models.MatchExact,
		Ambiguous:  len(candidates) > 1,
	}
}

// NormalizeName canonicalizes a person name for comparison: lowercase,
// collapsed internal whitespace, trailing punctuation stripped.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.TrimRight(s, ".,")
	return strings.Join(strings.Fields(s), " ")
}
