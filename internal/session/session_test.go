package session

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommodityNightSession(t *testing.T) {
	ts := NewCommodityNightSession()
	require.Len(t, ts.Slices(), 4)
	require.True(t, ts.HasNight())

	require.True(t, ts.InSession(Clock(9, 59, 10), true, false))
	require.False(t, ts.InSession(Clock(8, 59, 10), true, false))
	require.True(t, ts.InSession(Clock(0, 59, 10), true, false))
	require.False(t, ts.InSession(Clock(20, 59, 10), true, false))
	require.False(t, ts.InSession(Clock(10, 20, 0), true, false))

	require.Equal(t, Clock(21, 0, 0), ts.DayBegin())
	require.Equal(t, Clock(15, 0, 0), ts.DayEnd())
	require.Equal(t, Clock(9, 0, 0), ts.MorningBegin())
}

func TestPresets(t *testing.T) {
	cases := []struct {
		name         string
		ts           *TradeSession
		slices       int
		dayBegin     TimeOfDay
		dayEnd       TimeOfDay
		morningBegin TimeOfDay
		night        bool
	}{
		{"stock", NewStockSession(), 2, Clock(9, 30, 0), Clock(15, 0, 0), Clock(9, 30, 0), false},
		{"stock_index", NewStockIndexSession(), 2, Clock(9, 30, 0), Clock(15, 0, 0), Clock(9, 30, 0), false},
		{"bond", NewBondSession(), 2, Clock(9, 30, 0), Clock(15, 15, 0), Clock(9, 30, 0), false},
		{"commodity", NewCommoditySession(), 3, Clock(9, 0, 0), Clock(15, 0, 0), Clock(9, 0, 0), false},
		{"full", NewFullSession(), 3, Clock(21, 0, 0), Clock(15, 15, 0), Clock(9, 0, 0), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Len(t, tc.ts.Slices(), tc.slices)
			require.Equal(t, tc.dayBegin, tc.ts.DayBegin())
			require.Equal(t, tc.dayEnd, tc.ts.DayEnd())
			require.Equal(t, tc.morningBegin, tc.ts.MorningBegin())
			require.Equal(t, tc.night, tc.ts.HasNight())
		})
	}

	full := NewFullSession()
	require.True(t, full.InSession(Clock(9, 30, 0), true, false))
	require.False(t, full.InSession(Clock(11, 40, 0), true, false))
}

func TestEmptySessionDefaults(t *testing.T) {
	ts := New()
	ts.Normalize()
	require.Empty(t, ts.Slices())
	require.Equal(t, Clock(9, 0, 0), ts.DayBegin())
	require.Equal(t, Clock(15, 0, 0), ts.DayEnd())
	require.Equal(t, Clock(9, 0, 0), ts.MorningBegin())
	require.False(t, ts.InSession(Clock(10, 0, 0), true, true))
	require.False(t, ts.HasNight())
}

func TestNormalizeMergesAdjacent(t *testing.T) {
	ts := New()
	require.NoError(t, ts.AddHM(9, 0, 9, 5))
	require.NoError(t, ts.AddHM(9, 5, 9, 10))
	ts.Normalize()

	slices := ts.Slices()
	require.Len(t, slices, 1)
	require.Equal(t, NewShiftedTime(9, 0), slices[0].Begin())
	require.Equal(t, NewShiftedTime(9, 10), slices[0].End())
}

func TestNormalizeOverlapDuplicateUnsorted(t *testing.T) {
	ts := New()
	require.NoError(t, ts.AddHM(13, 30, 15, 0))
	require.NoError(t, ts.AddHM(9, 0, 10, 15))
	require.NoError(t, ts.AddHM(21, 0, 2, 30))
	require.NoError(t, ts.AddHM(9, 0, 10, 15))
	require.NoError(t, ts.AddHM(10, 0, 11, 30))
	ts.Normalize()

	slices := ts.Slices()
	require.Len(t, slices, 3)
	require.True(t, slices[0].IsNight())
	require.Equal(t, NewShiftedTime(9, 0), slices[1].Begin())
	require.Equal(t, NewShiftedTime(11, 30), slices[1].End())
	require.Equal(t, NewShiftedTime(13, 30), slices[2].Begin())
	for i := 1; i < len(slices); i++ {
		require.True(t, slices[i-1].End().Before(slices[i].Begin()))
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	ts := NewCommodityNightSession()
	first := ts.Slices()
	ts.Normalize()
	require.Equal(t, first, ts.Slices())
	ts.Normalize()
	require.Equal(t, first, ts.Slices())
}

func TestMinutesRoundTrip(t *testing.T) {
	s, err := NewSliceHM(9, 0, 9, 5)
	require.NoError(t, err)
	minutes := append(s.Minutes(), 840, 841)

	ts := NewFromMinutes(minutes)
	require.Equal(t, minutes, ts.Minutes())
	require.Len(t, ts.Slices(), 2)
}

func TestMinutesRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		var set [minutesInOneDay]bool
		n := rng.Intn(400)
		for j := 0; j < n; j++ {
			set[rng.Intn(minutesInOneDay)] = true
		}
		set[0] = i%2 == 0
		set[minutesInOneDay-1] = i%3 == 0

		var want []uint16
		for m, ok := range set {
			if ok {
				want = append(want, uint16(m))
			}
		}
		got := NewFromMinutes(want).Minutes()
		if len(want) == 0 {
			require.Empty(t, got)
			continue
		}
		require.Equal(t, want, got)
	}
}

func TestLoadMinutesLastMinute(t *testing.T) {
	ts := NewFromMinutes([]uint16{1438, 1439, 5000})
	slices := ts.Slices()
	require.Len(t, slices, 1)
	require.Equal(t, SecsInOneDay, slices[0].End().Seconds())
	require.Equal(t, Clock(20, 0, 0), ts.DayEnd())
	require.Equal(t, []uint16{1438, 1439}, ts.Minutes())
}

func TestMorningBeginFallsBackToDayBegin(t *testing.T) {
	ts := New()
	require.NoError(t, ts.AddHM(13, 0, 15, 0))
	require.NoError(t, ts.AddHM(21, 0, 23, 0))
	ts.Normalize()
	require.Equal(t, Clock(21, 0, 0), ts.DayBegin())
	require.Equal(t, Clock(21, 0, 0), ts.MorningBegin())

	early := New()
	require.NoError(t, early.AddHM(8, 0, 8, 30))
	require.NoError(t, early.AddHM(9, 30, 11, 30))
	early.Normalize()
	require.Equal(t, Clock(8, 0, 0), early.MorningBegin())
}

func TestAnyInSession(t *testing.T) {
	ts := NewCommoditySession()

	require.True(t, ts.AnyInSession(Clock(10, 0, 0), Clock(10, 20, 0), false))
	require.False(t, ts.AnyInSession(Clock(10, 15, 0), Clock(10, 30, 0), false))
	require.True(t, ts.AnyInSession(Clock(10, 15, 0), Clock(10, 30, 0), true))
	require.False(t, ts.AnyInSession(Clock(11, 31, 0), Clock(13, 29, 0), true))
	require.True(t, ts.AnyInSession(Clock(8, 0, 0), Clock(16, 0, 0), false))

	night := NewCommodityNightSession()
	require.True(t, night.AnyInSession(Clock(23, 0, 0), Clock(1, 0, 0), false))
}

func TestCloneIsIndependent(t *testing.T) {
	ts := NewStockSession()
	cp := ts.Clone()
	require.NoError(t, cp.AddHM(21, 0, 2, 30))
	cp.Normalize()
	require.False(t, ts.HasNight())
	require.True(t, cp.HasNight())
	require.Len(t, ts.Slices(), 2)
}

func TestSessionString(t *testing.T) {
	got := NewStockSession().String()
	want := "day_begin:09:30, morning_begin:09:30, day_end:15:00\n" +
		"1: raw(13:30~15:30), act(09:30~11:30)\n" +
		"2: raw(17:00~19:00), act(13:00~15:00)"
	require.Equal(t, want, got)
}
