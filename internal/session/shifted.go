package session

import "fmt"

const (
	secsInFourHours = 4 * 60 * 60
	// SecsInOneDay bounds every ShiftedTime.
	SecsInOneDay = 86400
)

// ShiftedTime counts seconds since a re-based midnight that sits at nominal 20:00.
// Adding four hours moves the day boundary out of the night session, so an
// interval such as 21:00~02:30 becomes the ordinary range 01:00~06:30.
type ShiftedTime struct {
	secs int
}

// endOfShiftedDay is only produced as the end of a normalized slice that covers
// the last shifted minute.
var endOfShiftedDay = ShiftedTime{secs: SecsInOneDay}

// NewShiftedTime shifts a nominal hour and minute.
func NewShiftedTime(hour, minute int) ShiftedTime {
	return ShiftedFromNominalSeconds(hour*3600 + minute*60)
}

// ShiftedFromNominalSeconds shifts seconds since nominal midnight.
func ShiftedFromNominalSeconds(secs int) ShiftedTime {
	return ShiftedTime{secs: mod(secs+secsInFourHours, SecsInOneDay)}
}

// ShiftedFromSeconds wraps a value that already carries the four hour shift.
func ShiftedFromSeconds(secs int) ShiftedTime {
	return ShiftedTime{secs: mod(secs, SecsInOneDay)}
}

// Shift converts a nominal time of day. A non-zero sub-second part counts as the
// following second: bars are cut left-open/right-closed, so 15:00:00 closes the
// previous bar while 15:00:00.5 already belongs to the next one.
func Shift(t TimeOfDay) ShiftedTime {
	secs := t.secondsSinceMidnight()
	if t.Nanosecond > 0 {
		secs++
	}
	return ShiftedFromNominalSeconds(secs)
}

// Seconds returns the shifted seconds.
func (s ShiftedTime) Seconds() int {
	return s.secs
}

// NominalSeconds returns seconds since nominal midnight.
func (s ShiftedTime) NominalSeconds() int {
	return (s.secs + SecsInOneDay - secsInFourHours) % SecsInOneDay
}

// Nominal returns the wall-clock time of day.
func (s ShiftedTime) Nominal() TimeOfDay {
	return secondsToClock(s.NominalSeconds())
}

// Shifted returns the shifted value read as a clock, 21:00 nominal reads 01:00.
func (s ShiftedTime) Shifted() TimeOfDay {
	return secondsToClock(s.secs % SecsInOneDay)
}

func (s ShiftedTime) Before(o ShiftedTime) bool { return s.secs < o.secs }
func (s ShiftedTime) After(o ShiftedTime) bool  { return s.secs > o.secs }

// Compare returns -1, 0 or +1.
func (s ShiftedTime) Compare(o ShiftedTime) int {
	switch {
	case s.secs < o.secs:
		return -1
	case s.secs > o.secs:
		return 1
	default:
		return 0
	}
}

func (s ShiftedTime) String() string {
	return fmt.Sprintf("%s, sec %d, %s", s.Nominal().HM(), s.secs, s.Shifted().HM())
}

func secondsToClock(secs int) TimeOfDay {
	return Clock(secs/3600, secs%3600/60, secs%60)
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}
