// Package roster loads the employee reference table and joins education
// records against it by normalized name.
package roster

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"eduparser/internal/logger"
	"eduparser/pkg/models"
)

var (
	// ErrMissingColumns is returned when the roster lacks one of the
	// required CNIC / EMPLOYEE_NUMBER / FULL_NAME columns.
	ErrMissingColumns = errors.New("roster is missing required columns (CNIC, EMPLOYEE_NUMBER, FULL_NAME)")

	// ErrEmptyRoster is returned when the roster has a header but no rows.
	ErrEmptyRoster = errors.New("roster contains no employee rows")
)

// Roster is the read-only employee reference table. The pipeline never
// mutates it, so one Roster may be shared across concurrent file jobs.
type Roster struct {
	employees []models.EmployeeRecord

	// byNorm groups employees by normalized full name; slices with more
	// than one entry mark a data-quality ambiguity.
	byNorm map[string][]*models.EmployeeRecord
}

// Load reads a roster from xlsx or csv bytes, keyed on the filename extension.
func Load(data []byte, filename string) (*Roster, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return loadCSV(data)
	}
	return loadXLSX(data)
}

// New builds a roster from already-parsed employee records.
func New(employees []models.EmployeeRecord) *Roster {
	r := &Roster{
		employees: employees,
		byNorm:    make(map[string][]*models.EmployeeRecord, len(employees)),
	}
	for i := range r.employees {
		emp := &r.employees[i]
		key := NormalizeName(emp.FullName)
		if key == "" {
			continue
		}
		r.byNorm[key] = append(r.byNorm[key], emp)
	}
	return r
}

// Len returns the number of employee rows.
func (r *Roster) Len() int {
	return len(r.employees)
}

func loadXLSX(data []byte) (*Roster, error) {
	const op = "loadXLSX"
	log := logger.WithComponent("roster")

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open workbook: %w", op, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close roster workbook")
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyRoster)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read rows: %w", op, err)
	}

	return fromRows(rows)
}

func loadCSV(data []byte) (*Roster, error) {
	const op = "loadCSV"

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse csv: %w", op, err)
		}
		rows = append(rows, record)
	}

	return fromRows(rows)
}

// fromRows builds the roster from a header row plus data rows. Header
// matching is case-insensitive and tolerant of surrounding whitespace.
func fromRows(rows [][]string) (*Roster, error) {
	const op = "fromRows"

	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyRoster)
	}

	cnicCol, empCol, nameCol := -1, -1, -1
	for i, header := range rows[0] {
		switch strings.ToUpper(strings.TrimSpace(header)) {
		case "CNIC":
			cnicCol = i
		case "EMPLOYEE_NUMBER", "EMPLOYEE NUMBER":
			empCol = i
		case "FULL_NAME", "FULL NAME", "NAME":
			nameCol = i
		}
	}
	if cnicCol < 0 || empCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("%s: %w (found headers: %s)", op, ErrMissingColumns, strings.Join(rows[0], ", "))
	}

	var employees []models.EmployeeRecord
	for _, row := range rows[1:] {
		emp := models.EmployeeRecord{
			CNIC:           cellAt(row, cnicCol),
			EmployeeNumber: cellAt(row, empCol),
			FullName:       cellAt(row, nameCol),
		}
		if emp.FullName == "" {
			continue
		}
		employees = append(employees, emp)
	}
	if len(employees) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyRoster)
	}

	return New(employees), nil
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
