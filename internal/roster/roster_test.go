package roster

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"eduparser/pkg/models"
)

func TestLoadCSV(t *testing.T) {
	data := []byte("CNIC,EMPLOYEE_NUMBER,FULL_NAME\n" +
		"35202-1234567-1,10023,Ali Khan\n" +
		"35202-7654321-2,10024,Sara Ahmed\n")

	r, err := Load(data, "employees.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
}

func TestLoadCSVHeaderVariants(t *testing.T) {
	data := []byte("cnic,Employee Number,Full Name\n35202-1234567-1,10023,Ali Khan\n")

	r, err := Load(data, "employees.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestLoadCSVMissingColumns(t *testing.T) {
	data := []byte("NAME_ONLY\nAli Khan\n")

	_, err := Load(data, "employees.csv")
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestLoadCSVEmpty(t *testing.T) {
	_, err := Load([]byte("CNIC,EMPLOYEE_NUMBER,FULL_NAME\n"), "employees.csv")
	assert.ErrorIs(t, err, ErrEmptyRoster)
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]string{"CNIC", "EMPLOYEE_NUMBER", "FULL_NAME"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]string{"35202-1234567-1", "10023", "Ali Khan"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	r, err := Load(buf.Bytes(), "employees.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	result := NewMatcher(r).Match("Ali Khan")
	require.NotNil(t, result.Employee)
	assert.Equal(t, "10023", result.Employee.EmployeeNumber)
}

func TestMatchExactNormalized(t *testing.T) {
	m := NewMatcher(New([]models.EmployeeRecord{
		{CNIC: "35202-1234567-1", EmployeeNumber: "10023", FullName: "Ali Khan"},
	}))

	tests := []struct {
		name  string
		input string
	}{
		{"exact", "Ali Khan"},
		{"extra whitespace", "Ali   Khan"},
		{"lowercase", "ali khan"},
		{"trailing dot", "Ali Khan."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := m.Match(tt.input)
			require.NotNil(t, result.Employee)
			assert.Equal(t, models.MatchExact, result.Confidence)
			assert.False(t, result.Ambiguous)
			assert.Equal(t, "35202-1234567-1", result.Employee.CNIC)
		})
	}
}

func TestMatchMiss(t *testing.T) {
	m := NewMatcher(New([]models.EmployeeRecord{
		{EmployeeNumber: "10023", FullName: "Ali Khan"},
	}))

	for _, input := range []string{"Ali Raza Khan", "Alee Khan", ""} {
		result := m.Match(input)
		assert.Nil(t, result.Employee, "input %q", input)
		assert.Equal(t, models.MatchNone, result.Confidence)
	}
}

func TestMatchAmbiguous(t *testing.T) {
	m := NewMatcher(New([]models.EmployeeRecord{
		{EmployeeNumber: "10023", FullName: "Ali Khan"},
		{EmployeeNumber: "10077", FullName: "ALI KHAN"},
	}))

	result := m.Match("Ali Khan")
	require.NotNil(t, result.Employee)
	assert.True(t, result.Ambiguous)
	// First roster row wins.
	assert.Equal(t, "10023", result.Employee.EmployeeNumber)
}
