package education

import (
	"time"

	"eduparser/pkg/models"
)

// DateRule derives degree start and end dates from the examination year.
// Certificates rarely print enrollment dates, so the HR import derives them
// from a fixed per-level convention instead.
type DateRule struct {
	EndMonth       time.Month
	EndDay         int
	StartMonth     time.Month
	StartDay       int
	StartYearsBack int // subtracted from the exam year for the start date
}

// DateRuleTable maps canonical level codes to their date rule. Levels
// without an entry (Associate's, Diploma) get no derived dates at all:
// the source convention is ambiguous for them, so the policy is to leave
// both dates empty rather than guess.
type DateRuleTable map[int]DateRule

// DefaultDateRuleTable returns the fixed derivation rules:
//
//	Matric/SSC   end 7 Jul Y   start 5 May Y-2
//	Inter/HSSC   end 7 Jul Y   start 8 Aug Y-2
//	Bachelor's   end 6 Jun Y   start 9 Sep Y-4
//	Master's     end 6 Jun Y   start 9 Sep Y-2
func DefaultDateRuleTable() DateRuleTable {
	return DateRuleTable{
		models.LevelMatriculation: {EndMonth: time.July, EndDay: 7, StartMonth: time.May, StartDay: 5, StartYearsBack: 2},
		models.LevelIntermediate:  {EndMonth: time.July, EndDay: 7, StartMonth: time.August, StartDay: 8, StartYearsBack: 2},
		models.LevelBachelor:      {EndMonth: time.June, EndDay: 6, StartMonth: time.September, StartDay: 9, StartYearsBack: 4},
		models.LevelMaster:        {EndMonth: time.June, EndDay: 6, StartMonth: time.September, StartDay: 9, StartYearsBack: 2},
	}
}

// Compute derives the (start, end) date pair for a level code and exam year.
// It returns ok=false when the level has no date rule; callers then leave
// both dates empty.
func (t DateRuleTable) Compute(levelCode, examYear int) (start, end time.Time, ok bool) {
	rule, found := t[levelCode]
	if !found {
		return time.Time{}, time.Time{}, false
	}
	end = time.Date(examYear, rule.EndMonth, rule.EndDay, 0, 0, 0, 0, time.UTC)
	start = time.Date(examYear-rule.StartYearsBack, rule.StartMonth, rule.StartDay, 0, 0, 0, 0, time.UTC)
	return start, end, true
}

// HasRule reports whether a level code carries a date rule.
func (t DateRuleTable) HasRule(levelCode int) bool {
	_, ok := t[levelCode]
	return ok
}
