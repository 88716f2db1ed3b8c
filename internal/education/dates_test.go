package education

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduparser/pkg/models"
)

func TestComputeDates(t *testing.T) {
	table := DefaultDateRuleTable()

	tests := []struct {
		name      string
		levelCode int
		examYear  int
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "matric 2020",
			levelCode: models.LevelMatriculation,
			examYear:  2020,
			wantStart: time.Date(2018, time.May, 5, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2020, time.July, 7, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "intermediate 2017",
			levelCode: models.LevelIntermediate,
			examYear:  2017,
			wantStart: time.Date(2015, time.August, 8, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2017, time.July, 7, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "bachelor 2021",
			levelCode: models.LevelBachelor,
			examYear:  2021,
			wantStart: time.Date(2017, time.September, 9, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2021, time.June, 6, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "master 2023",
			levelCode: models.LevelMaster,
			examYear:  2023,
			wantStart: time.Date(2021, time.September, 9, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2023, time.June, 6, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := table.Compute(tt.levelCode, tt.examYear)
			require.True(t, ok)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
			assert.True(t, start.Before(end), "start date must precede end date")
		})
	}
}

func TestComputeDatesNoRule(t *testing.T) {
	table := DefaultDateRuleTable()

	for _, levelCode := range []int{models.LevelAssociate, models.LevelDiploma} {
		_, _, ok := table.Compute(levelCode, 2020)
		assert.False(t, ok, "level %d must not derive dates", levelCode)
		assert.False(t, table.HasRule(levelCode))
	}
}
