package sqlite

import "time"

const fixedLayout = "2006-01-02T15:04:05.000000000Z07:00"

// fixedRFC3339Nano pads nanoseconds to 9 digits so TEXT ordering matches time ordering.
func fixedRFC3339Nano(t time.Time) string {
	return t.UTC().Format(fixedLayout)
}

// ParseTS reads a ts_utc / updated_utc column.
func ParseTS(s string) (time.Time, error) {
	return time.Parse(fixedLayout, s)
}
