package utils

import (
	"sort"
	"time"
)

func SortDates(dates []time.Time, asc bool) []time.Time {
	sort.Slice(dates, func(i, j int) bool {
		if asc {
			return dates[i].Before(dates[j])
		}
		return dates[i].After(dates[j])
	})
	return dates
}

// FormatDays renders dates as sorted, de-duplicated YYYY-MM-DD days.
func FormatDays(dates []time.Time) []string {
	sorted := SortDates(append([]time.Time(nil), dates...), true)
	days := make([]string, 0, len(sorted))
	for _, d := range sorted {
		day := d.UTC().Format(time.DateOnly)
		if len(days) > 0 && days[len(days)-1] == day {
			continue
		}
		days = append(days, day)
	}
	return days
}
