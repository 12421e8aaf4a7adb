// internal/models/clock.go
package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	DayLayout   = "2006-01-02"
	ClockLayout = "15:04"
)

// ClockTime is a wall-clock time of day in minutes after midnight.
type ClockTime int

func ParseClock(value string) (ClockTime, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse(ClockLayout, value)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", value)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

func (c ClockTime) Add(minutes int) ClockTime {
	return c + ClockTime(minutes)
}

func (c ClockTime) Minutes() int {
	return int(c)
}

// String formats as HH:MM. Values past midnight keep counting hours.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// ParseDay parses YYYY-MM-DD and rejects anything else, including
// out-of-range calendar dates.
func ParseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	day, err := time.Parse(DayLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return day, nil
}

func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// At combines a calendar day and a clock time in loc.
func At(day string, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := ParseDay(day)
	if err != nil {
		return time.Time{}, err
	}
	c, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, c.Minutes(), 0, 0, loc), nil
}
