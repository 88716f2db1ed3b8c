package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"eduparser/internal/pipeline"
	"eduparser/pkg/models"
)

// ReadRows parses a workbook previously produced by this tool back into
// pipeline rows. The match command uses it to re-join an existing education
// workbook against a roster without re-running extraction.
func ReadRows(path string) ([]pipeline.Row, error) {
	const op = "ReadRows"

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, wrapExportError(op, ErrWriteFailed, err.Error())
	}
	defer f.Close()

	sheet := SheetName
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, wrapExportError(op, ErrNoRows, "workbook has no sheets")
		}
		sheet = sheets[0]
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, wrapExportError(op, ErrWriteFailed, err.Error())
	}
	if len(cells) < 2 {
		return nil, wrapExportError(op, ErrNoRows, "")
	}

	colIdx := make(map[string]int, len(cells[0]))
	for i, header := range cells[0] {
		colIdx[strings.TrimSpace(header)] = i
	}

	at := func(row []string, name string) string {
		idx, ok := colIdx[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rows := make([]pipeline.Row, 0, len(cells)-1)
	for _, cellRow := range cells[1:] {
		rec := models.EducationRecord{
			PersonNumber: at(cellRow, "Person Number"),
			Name:         at(cellRow, "Name"),
			FatherName:   at(cellRow, "Father Name"),
			AverageGrade: at(cellRow, "Average Grade"),
			DegreeName:   at(cellRow, "Degree Name"),
			Major:        at(cellRow, "Major"),
			School:       at(cellRow, "School"),
			Graduated:    at(cellRow, "Graduated") == "Y",
			CountryCode:  at(cellRow, "Country Code"),
			SourceLabel:  at(cellRow, "Source File"),
		}
		if code, err := strconv.Atoi(at(cellRow, "Education Level")); err == nil {
			rec.LevelCode = &code
		}
		if pct, err := strconv.ParseFloat(at(cellRow, "Percentage"), 64); err == nil {
			rec.Percentage = &pct
		}
		rec.StartDate = parseDateCell(at(cellRow, "Degree Start Date"))
		rec.EndDate = parseDateCell(at(cellRow, "Degree End Date"))

		row := pipeline.Row{Record: rec}
		if notes := at(cellRow, "Notes"); notes != "" {
			row.Notes = strings.Split(notes, "; ")
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// parseDateCell accepts the formats excelize renders date cells in.
func parseDateCell(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "01-02-06", "1/2/06 15:04", "Jan-06"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
