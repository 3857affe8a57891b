package worklog

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDay(s)
	require.NoError(t, err)
	return d
}

func TestMissingDates(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		existing []string
		want     []string
	}{
		{"single day without log", "2024-05-01", "2024-05-01", nil, []string{"2024-05-01"}},
		{"single day with log", "2024-05-01", "2024-05-01", []string{"2024-05-01"}, []string{}},
		{"all logged", "2024-05-01", "2024-05-03", []string{"2024-05-03", "2024-05-01", "2024-05-02"}, []string{}},
		{"gaps in order", "2024-05-01", "2024-05-05", []string{"2024-05-02", "2024-05-04"}, []string{"2024-05-01", "2024-05-03", "2024-05-05"}},
		{"crosses month and leap day", "2024-02-28", "2024-03-01", []string{"2024-02-28"}, []string{"2024-02-29", "2024-03-01"}},
		{"out of range logs ignored", "2024-05-01", "2024-05-02", []string{"2024-04-30", "2024-05-01"}, []string{"2024-05-02"}},
		{"start after end", "2024-05-03", "2024-05-01", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MissingDates(day(t, tt.start), day(t, tt.end), tt.existing)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MissingDates mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMissingDatesIgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	start := time.Date(2024, 5, 1, 23, 30, 0, 0, loc)
	end := time.Date(2024, 5, 2, 0, 15, 0, 0, loc)

	got := MissingDates(start, end, []string{"2024-05-01"})
	assert.Equal(t, []string{"2024-05-02"}, got)
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay(" 2024-05-01 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", FormatDay(d))

	for _, bad := range []string{"", "2024-5-1", "2024-13-01", "01-05-2024", "2024-05-01T00:00:00Z"} {
		_, err := ParseDay(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestActivityLevel(t *testing.T) {
	for count, want := range map[int]int{0: 0, 1: 1, 2: 2, 3: 2, 4: 3, 5: 3, 6: 4, 40: 4} {
		assert.Equal(t, want, activityLevel(count), "count=%d", count)
	}
}
