package session

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const nanosPerDay = int64(24 * time.Hour)

// TimeOfDay is a wall-clock reading without a date or a location.
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// Clock builds a TimeOfDay with a zero sub-second part.
func Clock(hour, minute, second int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute, Second: second}
}

// FromTime takes the clock reading of t in t's own location.
func FromTime(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}
}

// FromNanos converts signed nanoseconds since local midnight.
// Values are reduced modulo 24h, so 86400s reads as 00:00:00 and -1s as 23:59:59.
func FromNanos(nanos int64) TimeOfDay {
	nanos %= nanosPerDay
	if nanos < 0 {
		nanos += nanosPerDay
	}
	secs := nanos / int64(time.Second)
	return TimeOfDay{
		Hour:       int(secs / 3600),
		Minute:     int(secs % 3600 / 60),
		Second:     int(secs % 60),
		Nanosecond: int(nanos % int64(time.Second)),
	}
}

// ParseTimeOfDay parses "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return TimeOfDay{}, errors.Wrapf(err, "parse time of day %q", s)
	}
	return FromTime(t), nil
}

// Nanos returns nanoseconds since midnight.
func (t TimeOfDay) Nanos() int64 {
	return int64(t.secondsSinceMidnight())*int64(time.Second) + int64(t.Nanosecond)
}

func (t TimeOfDay) secondsSinceMidnight() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// HM formats as "HH:MM".
func (t TimeOfDay) HM() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On places the clock reading on the calendar day of d, in d's location.
func (t TimeOfDay) On(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, t.Second, t.Nanosecond, d.Location())
}
