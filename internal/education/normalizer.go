package education

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"eduparser/internal/extraction"
	"eduparser/internal/logger"
	"eduparser/pkg/models"
)

// Normalizer turns raw candidates into canonical education records. All
// lookup tables are injected at construction.
type Normalizer struct {
	levels    LevelTable
	dateRules DateRuleTable
	boards    *BoardTable
	country   string // default country code when the model detected none
	log       zerolog.Logger
}

// NewNormalizer creates a Normalizer with explicit tables.
func NewNormalizer(levels LevelTable, dateRules DateRuleTable, boards *BoardTable, defaultCountry string) *Normalizer {
	return &Normalizer{
		levels:    levels,
		dateRules: dateRules,
		boards:    boards,
		country:   defaultCountry,
		log:       logger.WithComponent("education"),
	}
}

// NewDefaultNormalizer creates a Normalizer with the standard tables.
func NewDefaultNormalizer(defaultCountry string) *Normalizer {
	return NewNormalizer(DefaultLevelTable(), DefaultDateRuleTable(), DefaultBoardTable(), defaultCountry)
}

// Normalize validates and canonicalizes one candidate. Validation failures
// come back as issues on a partial record, never as a dropped row: the HR
// operator corrects flagged rows by hand.
func (n *Normalizer) Normalize(c extraction.Candidate, personNumber, sourceLabel string) (models.EducationRecord, []Issue) {
	var issues []Issue

	rec := models.EducationRecord{
		PersonNumber: personNumber,
		Name:         TitleCase(CollapseWhitespace(c.Name)),
		FatherName:   TitleCase(CollapseWhitespace(c.FatherName)),
		DegreeName:   CollapseWhitespace(c.DegreeName),
		Major:        CollapseWhitespace(c.Major),
		School:       n.boards.Standardize(c.School),
		AverageGrade: strings.ToUpper(CollapseWhitespace(c.GradeText)),
		Percentage:   parsePercentage(c.PercentText),
		ExamYear:     c.ExamYear,
		Graduated:    parseGraduated(c.Graduated),
		CountryCode:  n.countryCode(c.CountryCode),
		SourceLabel:  sourceLabel,
	}

	code, ok := n.levels.Lookup(c.LevelText)
	if !ok {
		issues = append(issues, Issue{Kind: IssueUnknownLevel, Detail: c.LevelText})
		n.log.Warn().
			Str("level_text", c.LevelText).
			Str("source", sourceLabel).
			Msg("Unrecognized education level, leaving level code empty")
		return rec, issues
	}
	rec.LevelCode = &code

	if !n.dateRules.HasRule(code) {
		// Associate's and Diploma: no date rule, dates stay empty and a
		// missing exam year is tolerated.
		return rec, issues
	}

	if c.ExamYear == 0 {
		issues = append(issues, Issue{Kind: IssueMissingExamYear})
		n.log.Warn().
			Int("level_code", code).
			Str("source", sourceLabel).
			Msg("Missing examination year, cannot derive degree dates")
		return rec, issues
	}

	start, end, _ := n.dateRules.Compute(code, c.ExamYear)
	rec.StartDate = &start
	rec.EndDate = &end
	return rec, issues
}

func (n *Normalizer) countryCode(raw string) string {
	code := strings.ToUpper(CollapseWhitespace(raw))
	if code == "" {
		return n.country
	}
	return code
}

// parsePercentage extracts a numeric percentage from text like "81.45%".
// Out-of-range or non-numeric values coerce to nil rather than rejecting
// the whole record.
func parsePercentage(raw string) *float64 {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f > 100 {
		return nil
	}
	return &f
}

func parseGraduated(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes", "true", "graduated":
		return true
	default:
		return false
	}
}
