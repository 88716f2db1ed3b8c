package education

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchoolStandardizer(t *testing.T) {
	standardizer := NewSchoolStandardizer([]string{
		"Federal Board of Intermediate and Secondary Education",
		"Allama Iqbal Open University",
		"University of Engineering and Technology Lahore",
		"Government College University Lahore",
	})

	tests := []struct {
		name        string
		input       string
		want        string
		wantMatched bool
	}{
		{"exact", "Allama Iqbal Open University", "Allama Iqbal Open University", true},
		{"abbreviation", "AIOU", "Allama Iqbal Open University", true},
		{"fbise abbreviation", "FBISE", "Federal Board of Intermediate and Secondary Education", true},
		{"abbreviation inside name", "UET Lahore", "University of Engineering and Technology Lahore", true},
		{"case and punctuation", "government college university, lahore", "Government College University Lahore", true},
		{"typo within threshold", "Goverment College University Lahore", "Government College University Lahore", true},
		{"no reference entry", "khyber medical college peshawar", "Khyber Medical College Peshawar", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, matched := standardizer.Standardize(tt.input)
			assert.Equal(t, tt.wantMatched, matched)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchoolStandardizerDropsDuplicates(t *testing.T) {
	standardizer := NewSchoolStandardizer([]string{
		"Allama Iqbal Open University",
		"ALLAMA IQBAL OPEN UNIVERSITY",
		"",
	})
	assert.Len(t, standardizer.reference, 1)
}
