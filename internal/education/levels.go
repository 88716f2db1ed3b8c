// Package education maps raw extracted certificate fields onto the canonical
// HR schema: level codes, derived degree dates, standardized board names.
//
// All lookup tables are explicit values passed into the Normalizer at
// construction so tests can substitute custom tables; nothing here is
// mutable global state.
package education

import (
	"strings"

	"eduparser/pkg/models"
)

// LevelTable maps normalized free-text level aliases to canonical codes.
type LevelTable map[string]int

// DefaultLevelTable returns the alias table for the six canonical levels.
// Lookups are case-insensitive and dot/whitespace-tolerant.
func DefaultLevelTable() LevelTable {
	return LevelTable{
		// Matriculation (32)
		"matriculation": models.LevelMatriculation,
		"matric":        models.LevelMatriculation,
		"ssc":           models.LevelMatriculation,
		"o-level":       models.LevelMatriculation,
		"o level":       models.LevelMatriculation,
		"o levels":      models.LevelMatriculation,

		// Intermediate (30)
		"intermediate": models.LevelIntermediate,
		"inter":        models.LevelIntermediate,
		"hssc":         models.LevelIntermediate,
		"fsc":          models.LevelIntermediate,
		"fa":           models.LevelIntermediate,
		"icom":         models.LevelIntermediate,
		"ics":          models.LevelIntermediate,
		"a-level":      models.LevelIntermediate,
		"a level":      models.LevelIntermediate,
		"a levels":     models.LevelIntermediate,

		// Bachelor's (27)
		"bachelor":   models.LevelBachelor,
		"bachelors":  models.LevelBachelor,
		"bachelor's": models.LevelBachelor,
		"bs":         models.LevelBachelor,
		"ba":         models.LevelBachelor,
		"bcom":       models.LevelBachelor,
		"bsc":        models.LevelBachelor,
		"bba":        models.LevelBachelor,
		"bs hons":    models.LevelBachelor,
		"bsc hons":   models.LevelBachelor,

		// Master's (26)
		"master":   models.LevelMaster,
		"masters":  models.LevelMaster,
		"master's": models.LevelMaster,
		"ms":       models.LevelMaster,
		"msc":      models.LevelMaster,
		"mba":      models.LevelMaster,
		"ma":       models.LevelMaster,
		"mphil":    models.LevelMaster,

		// Associate's (28)
		"associate":        models.LevelAssociate,
		"associates":       models.LevelAssociate,
		"associate's":      models.LevelAssociate,
		"associate degree": models.LevelAssociate,

		// Diploma (33)
		"diploma": models.LevelDiploma,
		"dae":     models.LevelDiploma,
	}
}

// Lookup resolves a free-text level string to its canonical code.
func (t LevelTable) Lookup(levelText string) (int, bool) {
	key := normalizeLevelKey(levelText)
	if key == "" {
		return 0, false
	}
	if code, ok := t[key]; ok {
		return code, true
	}
	// "BS Computer Science", "Master of Arts": try the leading token.
	if first, _, found := strings.Cut(key, " "); found {
		if code, ok := t[first]; ok {
			return code, true
		}
	}
	return 0, false
}

// normalizeLevelKey lowercases, strips dots and parenthesized trailers, and
// collapses whitespace so "B.Com", "b com" and "BCom" share one key.
func normalizeLevelKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexByte(s, '('); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.ReplaceAll(s, ".", "")
	return strings.Join(strings.Fields(s), " ")
}
