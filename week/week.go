// Package week computes the Monday-Sunday reporting period for a date.
package week

import (
	"time"
)

// Resolve returns the bounds of the calendar week containing ref: Monday at
// 00:00:00.000 through Sunday at 23:59:59.999. Only the calendar date of ref
// is used; the bounds are produced in UTC with no timezone conversion.
func Resolve(ref time.Time) (start, end time.Time) {
	y, m, d := ref.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	// ISO weekday: Monday = 1 ... Sunday = 7.
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}

	start = day.AddDate(0, 0, -(weekday - 1))
	end = start.AddDate(0, 0, 6).Add(24*time.Hour - time.Millisecond)
	return start, end
}
