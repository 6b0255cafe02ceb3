// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ingest

import "time"

// weekStart truncates a date to the Monday of its ISO week.
func weekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// isWeekend reports whether the full day name is Saturday or Sunday.
func isWeekend(dayOfWeek string) bool {
	return dayOfWeek == "Saturday" || dayOfWeek == "Sunday"
}
