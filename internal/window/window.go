// Package window computes the weekly aggregation window. The leaderboard
// runs Monday to Sunday in UTC; everything older than the current window's
// Monday is out of scope for ranking and gets cleared on rollover.
package window

import "time"

// Start returns the most recent Monday 00:00:00 UTC at or before now.
func Start(now time.Time) time.Time {
	now = now.UTC()
	// time.Weekday puts Sunday at 0; shift so Monday is 0.
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	monday := now.AddDate(0, 0, -daysSinceMonday)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
}

// NeedsRollover reports whether lastRollover predates the current window,
// meaning stored tweets belong to a finished week and must be cleared
// before the next ingestion batch runs.
func NeedsRollover(lastRollover, now time.Time) bool {
	return lastRollover.Before(Start(now))
}
