package worklog

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the wire and storage format of a calendar day.
const DayLayout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD string into midnight UTC.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DayLayout, s)
	if err != nil || len(s) != len(DayLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDay renders the calendar day of t, ignoring time of day.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MissingDates returns every day in [start, end] whose YYYY-MM-DD string is
// not in existing, in ascending order. Time of day on start and end is ignored.
func MissingDates(start, end time.Time, existing []string) []string {
	have := make(map[string]struct{}, len(existing))
	for _, d := range existing {
		have[d] = struct{}{}
	}

	missing := []string{}
	last := midnight(end)
	for day := midnight(start); !day.After(last); day = day.AddDate(0, 0, 1) {
		s := FormatDay(day)
		if _, ok := have[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

// activityLevel buckets a day's task count for the heatmap.
func activityLevel(count int) int {
	switch {
	case count <= 0:
		return 0
	case count == 1:
		return 1
	case count <= 3:
		return 2
	case count <= 5:
		return 3
	default:
		return 4
	}
}
