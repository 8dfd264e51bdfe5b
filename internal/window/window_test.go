package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStart(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{
			name:     "Mid-week Wednesday",
			now:      time.Date(2025, 6, 18, 15, 30, 0, 0, time.UTC), // Wednesday
			expected: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Monday exactly midnight",
			now:      time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Monday one second past midnight",
			now:      time.Date(2025, 6, 16, 0, 0, 1, 0, time.UTC),
			expected: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Sunday late evening maps back six days",
			now:      time.Date(2025, 6, 22, 23, 59, 59, 0, time.UTC), // Sunday
			expected: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Non-UTC input normalized to UTC",
			now:      time.Date(2025, 6, 17, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600)), // Mon 22:00 UTC
			expected: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Year boundary",
			now:      time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), // Thursday
			expected: time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Start(tt.now).Equal(tt.expected),
				"Start(%v) = %v, want %v", tt.now, Start(tt.now), tt.expected)
		})
	}
}

func TestNeedsRollover(t *testing.T) {
	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC) // Wednesday
	weekStart := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		lastRollover time.Time
		expected     bool
	}{
		{"Last rollover in the previous week", weekStart.Add(-24 * time.Hour), true},
		{"One second before the window start", weekStart.Add(-time.Second), true},
		{"Exactly at the window start", weekStart, false},
		{"Inside the current window", weekStart.Add(36 * time.Hour), false},
		{"Zero value always rolls over", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NeedsRollover(tt.lastRollover, now))
		})
	}
}
