// Package export renders pipeline rows into the xlsx workbook the HR bulk
// import consumes. Column order is part of the contract with that import
// and must not change.
package export

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"eduparser/internal/logger"
	"eduparser/internal/pipeline"
	"eduparser/pkg/models"
)

// SheetName is the single data sheet in the output workbook.
const SheetName = "Education Data"

// baseColumns is the fixed column order expected by the HR import.
var baseColumns = []string{
	"Person Number",
	"Name",
	"Father Name",
	"Degree Start Date",
	"Degree End Date",
	"Average Grade",
	"Education Level",
	"Degree Name",
	"Major",
	"School",
	"Percentage",
	"Graduated",
	"Country Code",
	"Source File",
}

// rosterColumns follow the base columns when a roster was matched.
var rosterColumns = []string{
	"CNIC",
	"Employee Number",
	"Match with roster",
}

// Service builds output workbooks.
type Service struct {
	log zerolog.Logger
}

// NewService creates an export service.
func NewService() *Service {
	return &Service{log: logger.WithComponent("export")}
}

// Write builds the workbook for a report and saves it to path. withRoster
// adds the roster match columns; notes always land in a trailing Notes
// column so flagged rows are visible next to their data.
func (s *Service) Write(report *pipeline.Report, path string, withRoster bool) error {
	const op = "Write"

	f, err := s.Build(report, withRoster)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			s.log.Warn().Err(closeErr).Msg("Failed to close workbook")
		}
	}()

	if err := f.SaveAs(path); err != nil {
		return wrapExportError(op, ErrWriteFailed, err.Error())
	}

	s.log.Info().
		Str("path", path).
		Int("rows", len(report.Rows)).
		Msg("Workbook written")
	return nil
}

// Build renders a report into an in-memory workbook.
func (s *Service) Build(report *pipeline.Report, withRoster bool) (*excelize.File, error) {
	const op = "Build"

	if report == nil || len(report.Rows) == 0 {
		return nil, wrapExportError(op, ErrNoRows, "")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, wrapExportError(op, ErrWriteFailed, err.Error())
	}

	columns := baseColumns
	if withRoster {
		columns = append(append([]string{}, baseColumns...), rosterColumns...)
	}
	columns = append(columns, "Notes")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, wrapExportError(op, ErrWriteFailed, err.Error())
	}
	dateStyle, err := f.NewStyle(&excelize.Style{
		CustomNumFmt: strPtr("yyyy-mm-dd"),
	})
	if err != nil {
		return nil, wrapExportError(op, ErrWriteFailed, err.Error())
	}

	for i, name := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, name); err != nil {
			return nil, wrapExportError(op, ErrWriteFailed, err.Error())
		}
		if err := f.SetCellStyle(SheetName, cell, cell, headerStyle); err != nil {
			return nil, wrapExportError(op, ErrWriteFailed, err.Error())
		}
	}

	for rowIdx, row := range report.Rows {
		excelRow := rowIdx + 2
		if err := s.writeRow(f, excelRow, row, withRoster, dateStyle); err != nil {
			return nil, wrapExportError(op, ErrWriteFailed, err.Error())
		}
	}

	s.applyColumnWidths(f, columns)
	return f, nil
}

func (s *Service) writeRow(f *excelize.File, excelRow int, row pipeline.Row, withRoster bool, dateStyle int) error {
	rec := row.Record

	values := []any{
		rec.PersonNumber,
		rec.Name,
		rec.FatherName,
		nil, // Degree Start Date, set below as a date cell
		nil, // Degree End Date
		rec.AverageGrade,
		nil, // Education Level, numeric when known
		rec.DegreeName,
		rec.Major,
		rec.School,
		nil, // Percentage, numeric when known
		graduatedText(rec.Graduated),
		rec.CountryCode,
		rec.SourceLabel,
	}
	if rec.LevelCode != nil {
		values[6] = *rec.LevelCode
	}
	if rec.Percentage != nil {
		values[10] = *rec.Percentage
	}

	if withRoster {
		cnic, empNumber, match := "", "", models.MatchNone
		if row.Match != nil {
			match = row.Match.Confidence
			if row.Match.Employee != nil {
				cnic = row.Match.Employee.CNIC
				empNumber = row.Match.Employee.EmployeeNumber
			}
		}
		values = append(values, cnic, empNumber, match)
	}

	values = append(values, joinNotes(row.Notes))

	for i, v := range values {
		if v == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(i+1, excelRow)
		if err := f.SetCellValue(SheetName, cell, v); err != nil {
			return err
		}
	}

	// Dates go in as real date cells, formatted ISO so the HR import and a
	// human reviewer read the same value.
	for col, t := range map[int]*time.Time{4: rec.StartDate, 5: rec.EndDate} {
		if t == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(col, excelRow)
		if err := f.SetCellValue(SheetName, cell, *t); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, cell, cell, dateStyle); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) applyColumnWidths(f *excelize.File, columns []string) {
	widths := map[string]float64{
		"Person Number":     14,
		"Name":              24,
		"Father Name":       24,
		"Degree Start Date": 16,
		"Degree End Date":   16,
		"Degree Name":       28,
		"Major":             22,
		"School":            36,
		"Source File":       30,
		"CNIC":              18,
		"Employee Number":   16,
		"Notes":             40,
	}

	for i, column := range columns {
		width, ok := widths[column]
		if !ok {
			width = 12
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, name, name, width); err != nil {
			s.log.Warn().Err(err).Str("column", name).Msg("Failed to set column width")
		}
	}
}

func graduatedText(graduated bool) string {
	if graduated {
		return "Y"
	}
	return "N"
}

func joinNotes(notes []string) string {
	out := ""
	for i, n := range notes {
		if i > 0 {
			out += "; "
		}
		out += n
	}
	return out
}

func strPtr(s string) *string { return &s }
