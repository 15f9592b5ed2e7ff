// Package timeparse turns the timetable's textual time ranges
// ("9.00AM-10.20AM", "12PM-1.30PM") into sort keys and absolute instants.
package timeparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedTime is returned for any time string that does not follow the
// "<hour>[.<minute>]<AM|PM>-<hour>[.<minute>]<AM|PM>" shape.
var ErrMalformedTime = errors.New("timeparse: malformed time string")

// Clock is one endpoint of a range on a 12-hour clock.
type Clock struct {
	Hour   int // 1..12 as written
	Minute int
	PM     bool
}

// MinutesOfDay converts the clock into minutes since midnight.
// 12AM is midnight and 12PM is noon.
func (c Clock) MinutesOfDay() int {
	m := (c.Hour%12)*60 + c.Minute
	if c.PM {
		m += 720
	}
	return m
}

// Range is a parsed "<start>-<end>" string.
type Range struct {
	Start Clock
	End   Clock
}

// ParseRange parses a full time range.
func ParseRange(s string) (Range, error) {
	startStr, endStr, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Range{}, fmt.Errorf("%w: %q has no '-' separator", ErrMalformedTime, s)
	}
	start, err := parseClock(startStr)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q: %v", ErrMalformedTime, s, err)
	}
	end, err := parseClock(endStr)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q: %v", ErrMalformedTime, s, err)
	}
	return Range{Start: start, End: end}, nil
}

func parseClock(s string) (Clock, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var c Clock
	switch {
	case strings.HasSuffix(s, "AM"):
	case strings.HasSuffix(s, "PM"):
		c.PM = true
	default:
		return Clock{}, errors.New("missing AM/PM marker")
	}
	s = strings.TrimSpace(s[:len(s)-2])

	hourStr, minStr, hasMin := strings.Cut(s, ".")
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 1 || hour > 12 {
		return Clock{}, fmt.Errorf("invalid hour %q", hourStr)
	}
	c.Hour = hour

	if hasMin {
		minute, err := strconv.Atoi(minStr)
		if err != nil || minute < 0 || minute > 59 {
			return Clock{}, fmt.Errorf("invalid minute %q", minStr)
		}
		c.Minute = minute
	}
	return c, nil
}

// ToMinutesOfDay returns the start of the range in minutes since midnight.
// It is only used as a sort key for grid rows.
func ToMinutesOfDay(s string) (int, error) {
	r, err := ParseRange(s)
	if err != nil {
		return 0, err
	}
	return r.Start.MinutesOfDay(), nil
}

// WeekStart returns midnight of the Sunday of anchor's week, in anchor's
// location.
func WeekStart(anchor time.Time) time.Time {
	d := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// ToInstants resolves both endpoints of the range onto the day that is
// dayOffset days (0 = Sunday .. 6 = Saturday) after the Sunday of
// weekAnchor's week.
func ToInstants(s string, dayOffset int, weekAnchor time.Time) (start, end time.Time, err error) {
	if dayOffset < 0 || dayOffset > 6 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: day offset %d out of range", ErrMalformedTime, dayOffset)
	}
	r, err := ParseRange(s)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	day := WeekStart(weekAnchor).AddDate(0, 0, dayOffset)
	at := func(c Clock) time.Time {
		m := c.MinutesOfDay()
		return time.Date(day.Year(), day.Month(), day.Day(), m/60, m%60, 0, 0, day.Location())
	}
	return at(r.Start), at(r.End), nil
}
