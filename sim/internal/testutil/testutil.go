// Package testutil provides shared test infrastructure for the job-shop simulator.
// It holds calendar fixtures used across sim/ test packages.
package testutil

import "time"

// MondayMidnight is 2024-01-01 00:00 UTC, a Monday.
var MondayMidnight = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// MondayShiftOpen is 2024-01-01 08:00 UTC, the opening of a standard 08-17 shift.
var MondayShiftOpen = MondayMidnight.Add(8 * time.Hour)

// Minutes converts days, hours and minutes into simulation minutes.
func Minutes(days, hours, minutes int) float64 {
	return float64(days*1440 + hours*60 + minutes)
}
