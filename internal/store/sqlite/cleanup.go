package sqlite

import (
	"database/sql"
	"fmt"
	"time"
)

// CleanupOldReloads deletes reload_log rows older than retentionDays.
// ts_utc is a fixed-width RFC3339Nano TEXT, so lexicographic compare works.
func CleanupOldReloads(db *sql.DB, nowUTC time.Time, retentionDays int) (int64, error) {
	if retentionDays < 1 {
		return 0, fmt.Errorf("retentionDays must be >= 1")
	}
	cutoff := fixedRFC3339Nano(nowUTC.AddDate(0, 0, -retentionDays))
	res, err := db.Exec(`DELETE FROM reload_log WHERE ts_utc < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
