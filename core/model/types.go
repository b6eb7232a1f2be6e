package model

import (
	"fmt"
	"time"
)

// Frequency defines how sessions of a therapy are spaced within a phase.
type Frequency string

const (
	FrequencyDaily         Frequency = "daily"
	FrequencyAlternateDays Frequency = "alternate_days"
	FrequencyTwiceDaily    Frequency = "twice_daily"
	FrequencyOnceWeekly    Frequency = "once_weekly"
	FrequencyCustom        Frequency = "custom"
)

// DayIncrement returns the number of days to advance between consecutive
// sessions of this frequency. Twice-daily sessions share a day.
func (f Frequency) DayIncrement() int {
	switch f {
	case FrequencyAlternateDays:
		return 2
	case FrequencyTwiceDaily:
		return 0
	case FrequencyOnceWeekly:
		return 7
	default:
		return 1
	}
}

// IdealGapDays returns the target spacing in days between consecutive
// sessions, used to score frequency adherence.
func (f Frequency) IdealGapDays() float64 {
	if f == FrequencyTwiceDaily {
		return 0.5
	}
	return float64(f.DayIncrement())
}

// TimeOfDay buckets a clock time into the coarse preference categories
// patients and therapies express.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
	Flexible  TimeOfDay = "flexible"
)

// TimeOfDayForHour maps an hour of day to its bucket.
func TimeOfDayForHour(hour int) TimeOfDay {
	switch {
	case hour >= 6 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 21:
		return Evening
	default:
		return Night
	}
}

// ClockTime is a time of day expressed as minutes since midnight.
type ClockTime int

// ParseClockTime parses an "HH:MM" string.
func ParseClockTime(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return ClockTime(h*60 + m), nil
}

// MustClockTime parses an "HH:MM" string and panics on error. Intended for
// fixtures and tests.
func MustClockTime(s string) ClockTime {
	c, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hour returns the hour component.
func (c ClockTime) Hour() int { return int(c) / 60 }

// Minute returns the minute component.
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On anchors the clock time to a calendar date in the date's location.
func (c ClockTime) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour(), c.Minute(), 0, 0, date.Location())
}

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two intervals intersect.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// DateOnly truncates a timestamp to midnight in its location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDate reports whether two timestamps fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsWeekend reports whether the date is a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// DaysBetween returns the whole-day difference between two dates,
// ignoring the time of day.
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}
