package education

import (
	"strings"

	"github.com/agext/levenshtein"
)

// BoardTable holds canonical, case-sensitive board/institution names as the
// HR system expects them. Raw school text is matched against it after
// aggressive normalization; unmatched names fall back to title-casing.
type BoardTable struct {
	names  []string
	byNorm map[string]string
}

// DefaultBoardTable returns the canonical Pakistani examination board list.
func DefaultBoardTable() *BoardTable {
	return NewBoardTable([]string{
		"BISE, Lahore", "BISE, Gujranwala", "BISE, Rawalpindi", "BISE, Sargodha",
		"BISE, Faisalabad", "BISE, Multan", "BISE, Bahawalpur", "BISE, Dera Ghazi Khan",
		"BISE, Sahiwal", "BISE, Karachi", "BISE, Hyderabad", "BISE, Sukkur",
		"BISE, Larkana", "BISE, Mirpur Khas", "BISE, Quetta", "BISE, Peshawar",
		"BISE, Abbottabad", "BISE, Swat", "BISE, Malakand", "BISE, Kohat",
		"BISE, Bannu", "BISE, Mardan", "BISE, Dera Ismail Khan",
		"Federal Board, Islamabad",
		"ZIAUDDIN UNIVERSITY EXAMINATION BOARD SINDH",
		"Allama Iqbal Open University, Islamabad",
		"Aga Khan University Examination Board",
		"Punjab Board of Technical Education",
		"Sindh Technical Education and Vocational Training Authority",
	})
}

// NewBoardTable builds a table from canonical names.
func NewBoardTable(names []string) *BoardTable {
	t := &BoardTable{
		names:  names,
		byNorm: make(map[string]string, len(names)),
	}
	for _, name := range names {
		t.byNorm[normalizeAggressive(name)] = name
	}
	return t
}

// Standardize maps raw school/board text to its canonical spelling. When no
// canonical entry matches it returns the input whitespace-collapsed and
// title-cased, which is what the HR import expects for universities outside
// the board list.
func (t *BoardTable) Standardize(raw string) string {
	cleaned := CollapseWhitespace(raw)
	if cleaned == "" {
		return ""
	}

	norm := normalizeAggressive(cleaned)
	if canonical, ok := t.byNorm[norm]; ok {
		return canonical
	}

	// "BISE Lahore", "Board of Intermediate and Secondary Education Lahore":
	// try to recover the city and rebuild the strict "BISE, <City>" form.
	if canonical, ok := t.matchBoardCity(norm); ok {
		return canonical
	}

	return TitleCase(cleaned)
}

// matchBoardCity fuzzily matches normalized text against each canonical
// entry. The threshold is high on purpose: a wrong board is worse for the
// HR import than an unstandardized one.
func (t *BoardTable) matchBoardCity(norm string) (string, bool) {
	const threshold = 0.85
	best := ""
	bestScore := 0.0
	for canonicalNorm, canonical := range t.byNorm {
		score := levenshtein.Match(norm, canonicalNorm, nil)
		if score > bestScore {
			bestScore = score
			best = canonical
		}
	}
	if bestScore >= threshold {
		return best, true
	}
	return "", false
}

// CollapseWhitespace trims and folds runs of whitespace into single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}

// TitleCase uppercases the first letter of every word, keeping short
// connective words lowercase except at the start ("University of the Punjab").
func TitleCase(s string) string {
	small := map[string]bool{"of": true, "the": true, "and": true, "for": true, "in": true, "at": true}
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if i > 0 && small[w] {
			continue
		}
		words[i] = upperFirst(w)
	}
	return strings.Join(words, " ")
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] = r[0] - 'a' + 'A'
	}
	return string(r)
}

// normalizeAggressive lowercases and strips everything but letters and
// digits, so "BISE, Lahore", "bise lahore" and "B.I.S.E Lahore" compare equal.
func normalizeAggressive(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
