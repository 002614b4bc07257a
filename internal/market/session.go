package market

import (
	"time"

	"github.com/pcdogyu/tradesession/internal/session"
)

// Shanghai is the exchange clock; falls back to a fixed UTC+8 zone without tzdata.
var Shanghai = loadShanghai()

func loadShanghai() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}

// IsCNTradingTime checks A-share continuous auction sessions in Asia/Shanghai.
// This ignores holidays; it gates by weekday and session hours.
func IsCNTradingTime(t time.Time) bool {
	return IsTradingTime(session.NewStockSession(), t.In(Shanghai))
}

// IsTradingTime applies ts to the wall clock of t, in t's location. Boundaries
// follow bar cutting: the open is included, the close is not.
// Hours before 06:00 belong to the previous evening's night session, so
// Saturday 01:00 counts as Friday while Monday 01:00 counts as Sunday.
func IsTradingTime(ts *session.TradeSession, t time.Time) bool {
	day := t
	if t.Hour() < 6 {
		day = t.Add(-6 * time.Hour)
	}
	wd := day.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return ts.InSession(session.FromTime(t), true, false)
}
