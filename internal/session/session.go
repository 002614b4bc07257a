package session

import (
	"fmt"
	"strings"
)

const minutesInOneDay = SecsInOneDay / 60

// Shifted window [06:00, 11:00) in which a morning open is looked for.
var (
	morningFrom = NewShiftedTime(6, 0)
	morningTo   = NewShiftedTime(11, 0)
)

// TradeSession is the normalized set of slices for one instrument together with
// its day open, day close and morning open.
type TradeSession struct {
	slices []Slice
	// dayBegin is 09:00/09:15/09:30 or 21:00, usually where the call auction sits.
	dayBegin TimeOfDay
	// dayEnd is 15:00 for commodities and index futures, 15:15 for bonds.
	dayEnd TimeOfDay
	// morningBegin equals dayBegin unless the instrument trades at night.
	morningBegin TimeOfDay
}

// New returns an empty session with the 09:00~15:00 defaults.
func New() *TradeSession {
	return &TradeSession{
		dayBegin:     Clock(9, 0, 0),
		dayEnd:       Clock(15, 0, 0),
		morningBegin: Clock(9, 0, 0),
	}
}

// NewFromSlices adds the slices and normalizes.
func NewFromSlices(slices []Slice) *TradeSession {
	ts := New()
	ts.slices = append(ts.slices, slices...)
	ts.Normalize()
	return ts
}

// NewFromMinutes rebuilds a session from shifted minutes, see LoadMinutes.
func NewFromMinutes(minutes []uint16) *TradeSession {
	ts := New()
	ts.LoadMinutes(minutes)
	return ts
}

func presetHM(ranges ...[4]int) *TradeSession {
	ts := New()
	for _, r := range ranges {
		if err := ts.AddHM(r[0], r[1], r[2], r[3]); err != nil {
			panic(err)
		}
	}
	ts.Normalize()
	return ts
}

// NewStockSession is 09:30~11:30, 13:00~15:00.
func NewStockSession() *TradeSession {
	return presetHM([4]int{9, 30, 11, 30}, [4]int{13, 0, 15, 0})
}

// NewStockIndexSession is the stock schedule, index futures trade the same hours.
func NewStockIndexSession() *TradeSession {
	return NewStockSession()
}

// NewBondSession closes fifteen minutes after the stock schedule.
func NewBondSession() *TradeSession {
	return presetHM([4]int{9, 30, 11, 30}, [4]int{13, 0, 15, 15})
}

// NewCommoditySession is a commodity future without a night session.
func NewCommoditySession() *TradeSession {
	return presetHM([4]int{9, 0, 10, 15}, [4]int{10, 30, 11, 30}, [4]int{13, 30, 15, 0})
}

// NewCommodityNightSession adds 21:00~02:30 to the commodity schedule.
func NewCommodityNightSession() *TradeSession {
	return presetHM(
		[4]int{21, 0, 2, 30},
		[4]int{9, 0, 10, 15},
		[4]int{10, 30, 11, 30},
		[4]int{13, 30, 15, 0},
	)
}

// NewFullSession covers every known window of stocks, index, bond and commodity futures.
func NewFullSession() *TradeSession {
	return presetHM([4]int{21, 0, 2, 30}, [4]int{9, 0, 11, 30}, [4]int{13, 0, 15, 15})
}

// Slices returns a copy of the slices, in the shifted domain.
func (ts *TradeSession) Slices() []Slice {
	return append([]Slice(nil), ts.slices...)
}

func (ts *TradeSession) DayBegin() TimeOfDay     { return ts.dayBegin }
func (ts *TradeSession) DayEnd() TimeOfDay       { return ts.dayEnd }
func (ts *TradeSession) MorningBegin() TimeOfDay { return ts.morningBegin }

// HasNight reports whether any slice is a night session.
func (ts *TradeSession) HasNight() bool {
	for _, s := range ts.slices {
		if s.IsNight() {
			return true
		}
	}
	return false
}

// InSession reports whether t falls inside any slice.
func (ts *TradeSession) InSession(t TimeOfDay, includeBegin, includeEnd bool) bool {
	sec := Shift(t)
	for _, s := range ts.slices {
		if s.contains(sec, includeBegin, includeEnd) {
			return true
		}
	}
	return false
}

// AnyInSession reports whether [start, end] touches any slice. Both ends are shifted
// independently, so the answer is only meaningful when the range itself does not
// straddle nominal 20:00.
func (ts *TradeSession) AnyInSession(start, end TimeOfDay, includeBeginEnd bool) bool {
	b, e := Shift(start), Shift(end)
	for _, s := range ts.slices {
		if includeBeginEnd {
			if b.secs <= s.end.secs && e.secs >= s.begin.secs {
				return true
			}
		} else if b.secs < s.end.secs && e.secs > s.begin.secs {
			return true
		}
	}
	return false
}

// AddSlice appends a raw slice. Call Normalize once all slices are in.
func (ts *TradeSession) AddSlice(s Slice) *TradeSession {
	ts.slices = append(ts.slices, s)
	return ts
}

// AddHM appends a raw slice given in nominal hours and minutes.
// Call Normalize once all slices are in.
func (ts *TradeSession) AddHM(beginHour, beginMinute, endHour, endMinute int) error {
	s, err := NewSliceHM(beginHour, beginMinute, endHour, endMinute)
	if err != nil {
		return err
	}
	ts.slices = append(ts.slices, s)
	return nil
}

// Normalize merges overlapping and adjacent slices through their minute sets,
// sorts them, and recomputes the day and morning boundaries.
func (ts *TradeSession) Normalize() {
	if len(ts.slices) == 0 {
		return
	}
	ts.loadMinuteSet(ts.minuteSet())
	ts.fixDayBeginEnd()
}

// Minutes returns the union of the slices' shifted minutes, ascending.
// Useful for intersecting the hours of several instruments.
func (ts *TradeSession) Minutes() []uint16 {
	set := ts.minuteSet()
	out := make([]uint16, 0, len(set))
	for m, ok := range set {
		if ok {
			out = append(out, uint16(m))
		}
	}
	return out
}

// LoadMinutes replaces the slices with the runs found in minutes and recomputes
// the boundaries. Minutes outside [0, 1440) are ignored. A run through minute
// 1439 ends at nominal 20:00, which only MarshalJSON's 19:59:59 can express.
func (ts *TradeSession) LoadMinutes(minutes []uint16) {
	var set [minutesInOneDay]bool
	for _, m := range minutes {
		if int(m) < minutesInOneDay {
			set[m] = true
		}
	}
	ts.loadMinuteSet(set)
	ts.fixDayBeginEnd()
}

func (ts *TradeSession) minuteSet() [minutesInOneDay]bool {
	var set [minutesInOneDay]bool
	for _, s := range ts.slices {
		for _, m := range s.Minutes() {
			set[m] = true
		}
	}
	return set
}

func (ts *TradeSession) loadMinuteSet(set [minutesInOneDay]bool) {
	ts.slices = ts.slices[:0]
	start, prev := -1, -1
	for m, ok := range set {
		if !ok {
			continue
		}
		switch {
		case start < 0:
			start = m
		case m != prev+1:
			ts.slices = append(ts.slices, minuteRun(start, prev))
			start = m
		}
		prev = m
	}
	if start >= 0 {
		ts.slices = append(ts.slices, minuteRun(start, prev))
	}
}

func minuteRun(first, last int) Slice {
	end := ShiftedTime{secs: (last + 1) * 60}
	if end.secs >= SecsInOneDay {
		end = endOfShiftedDay
	}
	return Slice{begin: ShiftedTime{secs: first * 60}, end: end}
}

func (ts *TradeSession) fixDayBeginEnd() {
	if len(ts.slices) == 0 {
		return
	}
	ts.dayBegin = ts.slices[0].begin.Nominal()
	ts.dayEnd = ts.slices[len(ts.slices)-1].end.Nominal()

	ts.morningBegin = ts.dayBegin
	for _, s := range ts.slices {
		if !s.begin.Before(morningFrom) && s.begin.Before(morningTo) {
			ts.morningBegin = s.begin.Nominal()
			break
		}
	}
}

// Clone returns an independent copy.
func (ts *TradeSession) Clone() *TradeSession {
	cp := *ts
	cp.slices = ts.Slices()
	return &cp
}

func (ts *TradeSession) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "day_begin:%s, morning_begin:%s, day_end:%s",
		ts.dayBegin.HM(), ts.morningBegin.HM(), ts.dayEnd.HM())
	for i, s := range ts.slices {
		fmt.Fprintf(&b, "\n%d: %s", i+1, s)
	}
	return b.String()
}
