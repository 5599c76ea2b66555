package calendar

import (
	"fmt"
	"time"
)

// Canonical wire formats. Slot matching in the cache compares strings produced
// with these layouts, so every producer must go through them.
const (
	DateFormat     = "2006-01-02"
	TimeFormat     = "15:04"
	DateTimeFormat = "2006-01-02T15:04"
)

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.minutes() < o.minutes()
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On combines a date with the time of day.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, time.UTC)
}

// ParseTimeOfDay accepts exactly "HH:MM" with hours 00-23 and minutes 00-59.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return TimeOfDay{}, fmt.Errorf("invalid time format: %q, expected HH:MM", s)
	}
	tt, err := time.Parse(TimeFormat, s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time format: %q, expected HH:MM", s)
	}
	return TimeOfDay{Hour: tt.Hour(), Minute: tt.Minute()}, nil
}

func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

func ParseDateTime(s string) (time.Time, error) {
	dt, err := time.Parse(DateTimeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid datetime format: %q, expected YYYY-MM-DDTHH:MM", s)
	}
	return dt, nil
}

// DateOf truncates a naive date-time to its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Naive drops the location of t, keeping its wall-clock reading. All values in
// this package are naive and carried in UTC.
func Naive(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeFormat)
}
