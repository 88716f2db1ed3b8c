package education

import (
	"strings"

	"github.com/agext/levenshtein"
)

// schoolAbbreviations maps common institution abbreviations to their full
// names so "FBISE" and "Federal Board of Intermediate and Secondary
// Education" collapse to one reference entry.
var schoolAbbreviations = map[string]string{
	"fbise": "federal board of intermediate and secondary education",
	"bise":  "board of intermediate and secondary education",
	"aiou":  "allama iqbal open university",
	"pbte":  "punjab board of technical education",
	"sbte":  "sindh board of technical education",
	"kpbte": "khyber pakhtunkhwa board of technical education",
	"uet":   "university of engineering and technology",
	"nust":  "national university of sciences and technology",
	"vu":    "virtual university of pakistan",
	"pu":    "university of the punjab",
}

// SchoolStandardizer maps free-form institution names onto a reference list
// of canonical names. Unlike BoardTable, the reference list is supplied by
// the operator, so the same tool serves boards, universities and colleges.
type SchoolStandardizer struct {
	reference []string

	// byNorm indexes reference names by their normalized, abbreviation-expanded form.
	byNorm map[string]string

	// threshold is the minimum Levenshtein similarity for a fuzzy match.
	threshold float64
}

// NewSchoolStandardizer builds a standardizer over a reference name list.
// Empty and duplicate reference entries are dropped.
func NewSchoolStandardizer(reference []string) *SchoolStandardizer {
	s := &SchoolStandardizer{
		byNorm:    make(map[string]string, len(reference)),
		threshold: 0.85,
	}
	for _, name := range reference {
		name = CollapseWhitespace(name)
		if name == "" {
			continue
		}
		norm := normalizeSchool(name)
		if _, seen := s.byNorm[norm]; seen {
			continue
		}
		s.byNorm[norm] = name
		s.reference = append(s.reference, name)
	}
	return s
}

// Standardize returns the canonical reference name for raw, and whether a
// reference entry matched. On a miss the cleaned-up input comes back so the
// output column is still presentable.
func (s *SchoolStandardizer) Standardize(raw string) (string, bool) {
	cleaned := CollapseWhitespace(raw)
	if cleaned == "" {
		return "", false
	}

	norm := normalizeSchool(cleaned)
	if canonical, ok := s.byNorm[norm]; ok {
		return canonical, true
	}

	bestScore := 0.0
	bestName := ""
	for refNorm, refName := range s.byNorm {
		score := levenshtein.Match(norm, refNorm, nil)
		if score > bestScore {
			bestScore = score
			bestName = refName
		}
	}
	if bestScore >= s.threshold {
		return bestName, true
	}

	return TitleCase(cleaned), false
}

// normalizeSchool lowercases a name, drops punctuation while keeping word
// boundaries, and expands known abbreviation tokens.
func normalizeSchool(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	words := strings.Fields(b.String())
	for i, w := range words {
		if full, ok := schoolAbbreviations[w]; ok {
			words[i] = full
		}
	}
	return strings.Join(words, " ")
}
