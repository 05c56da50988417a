package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
// 24:00 (MinutesPerDay) is representable so that closed windows can end at midnight.
type TimeOfDay int

// MinutesPerDay is the number of minutes in a day
const MinutesPerDay = 24 * 60

// Clock builds a TimeOfDay from hours and minutes
func Clock(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "HH:MM" (or "HH:MM:SS", seconds ignored)
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}

	if hour < 0 || hour > 24 || minute < 0 || minute > 59 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}

	return Clock(hour, minute), nil
}

// Minutes returns the number of minutes since midnight
func (t TimeOfDay) Minutes() int {
	return int(t)
}

// Hour returns the hour component
func (t TimeOfDay) Hour() int {
	return int(t) / 60
}

// Minute returns the minute-of-hour component
func (t TimeOfDay) Minute() int {
	return int(t) % 60
}

// Add returns t shifted by d, truncated to whole minutes
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return t + TimeOfDay(d/time.Minute)
}

// Sub returns the duration between t and u
func (t TimeOfDay) Sub(u TimeOfDay) time.Duration {
	return time.Duration(t-u) * time.Minute
}

// Duration converts t into a duration since midnight (pgx stores TIME as microseconds since midnight)
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t) * time.Minute
}

// TimeOfDayFromDuration converts a duration since midnight into a TimeOfDay
func TimeOfDayFromDuration(d time.Duration) TimeOfDay {
	return TimeOfDay(d / time.Minute)
}

// String formats t as "HH:MM"
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// DateOnly truncates t to midnight UTC of its calendar day
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
