package session

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidRange reports a slice whose begin is not before its end once shifted.
var ErrInvalidRange = errors.New("invalid session range")

// nightBegin is nominal 21:00, the start of every night session.
var nightBegin = NewShiftedTime(21, 0)

// Slice is one contiguous trading interval held in the shifted domain.
// Begin is always before end.
type Slice struct {
	begin ShiftedTime
	end   ShiftedTime
}

// NewSlice builds a slice from nominal times. 21:00~02:30 is accepted because the
// shift has already removed the midnight wrap.
func NewSlice(begin, end TimeOfDay) (Slice, error) {
	return NewSliceFromShifted(Shift(begin), Shift(end))
}

// NewSliceFromShifted expects values that already carry the shift.
func NewSliceFromShifted(begin, end ShiftedTime) (Slice, error) {
	if !begin.Before(end) {
		return Slice{}, errors.Wrapf(ErrInvalidRange, "begin %s must be before end %s", begin, end)
	}
	return Slice{begin: begin, end: end}, nil
}

// NewSliceHM builds a slice from nominal hours and minutes.
func NewSliceHM(beginHour, beginMinute, endHour, endMinute int) (Slice, error) {
	return NewSliceFromShifted(NewShiftedTime(beginHour, beginMinute), NewShiftedTime(endHour, endMinute))
}

func (s Slice) Begin() ShiftedTime { return s.begin }
func (s Slice) End() ShiftedTime   { return s.end }

// InSlice reports whether t falls inside the slice, with each boundary
// included or excluded as asked.
func (s Slice) InSlice(t TimeOfDay, includeBegin, includeEnd bool) bool {
	return s.contains(Shift(t), includeBegin, includeEnd)
}

func (s Slice) contains(sec ShiftedTime, includeBegin, includeEnd bool) bool {
	switch {
	case includeBegin && includeEnd:
		return sec.secs >= s.begin.secs && sec.secs <= s.end.secs
	case includeBegin:
		return sec.secs >= s.begin.secs && sec.secs < s.end.secs
	case includeEnd:
		return sec.secs > s.begin.secs && sec.secs <= s.end.secs
	default:
		return sec.secs > s.begin.secs && sec.secs < s.end.secs
	}
}

// IsNight reports whether the slice starts at nominal 21:00.
func (s Slice) IsNight() bool {
	return s.begin == nightBegin
}

// Minutes lists the whole shifted minutes in [begin, end), ascending.
// Boundaries finer than a minute are truncated.
func (s Slice) Minutes() []uint16 {
	first, last := s.begin.secs/60, s.end.secs/60
	if last <= first {
		return nil
	}
	out := make([]uint16, 0, last-first)
	for m := first; m < last; m++ {
		out = append(out, uint16(m))
	}
	return out
}

func (s Slice) String() string {
	return fmt.Sprintf("raw(%s~%s), act(%s~%s)",
		s.begin.Shifted().HM(), s.end.Shifted().HM(),
		s.begin.Nominal().HM(), s.end.Nominal().HM())
}
