package models

import "time"

// Education level codes used by the target HR system (Oracle lookup values).
const (
	LevelMatriculation = 32
	LevelIntermediate  = 30
	LevelBachelor      = 27
	LevelMaster        = 26
	LevelAssociate     = 28
	LevelDiploma       = 33
)

// EducationRecord is one validated certificate, ready for tabular export.
// Dates are always derived from the examination year, never taken from the
// document or the extraction model.
type EducationRecord struct {
	// Identity
	PersonNumber string // Supplied by the caller, constant for one run
	Name         string // Student name, trimmed and title-cased
	FatherName   string // Father's name when printed on the certificate

	// Level and dates
	LevelCode *int       // One of the Level* constants; nil when the level text was unmappable
	ExamYear  int        // 4-digit examination year; 0 when unparseable
	StartDate *time.Time // Derived degree start; nil for levels without a date rule
	EndDate   *time.Time // Derived degree end; nil for levels without a date rule

	// Descriptive fields (may be empty when unextractable)
	DegreeName string
	Major      string
	School     string // Standardized board/institution name

	// Grading
	AverageGrade string   // Letter grade (A1, A, B, ...) or division conversion
	Percentage   *float64 // 0-100; nil when ungradeable

	Graduated   bool
	CountryCode string // Defaults to the configured country when undetected

	// SourceLabel identifies the physical document, e.g. "merged.jpg (Doc 2/3)".
	SourceLabel string
}

// EmployeeRecord is one roster row. Reference data only; the pipeline never
// mutates it.
type EmployeeRecord struct {
	CNIC           string
	EmployeeNumber string
	FullName       string
}

// Match confidence values.
const (
	MatchExact = "exact"
	MatchNone  = "none"
)

// MatchResult pairs an education record with at most one roster employee.
type MatchResult struct {
	Employee   *EmployeeRecord // nil on a miss
	Confidence string          // MatchExact or MatchNone

	// Ambiguous is set when several roster rows share the matched
	// normalized name; the first one was attached.
	Ambiguous bool
}
