package sqlite

import (
	"database/sql"
	"time"

	"github.com/pcdogyu/tradesession/internal/loader"
)

// UpsertSessions writes every record in one transaction.
func UpsertSessions(db *sql.DB, nowUTC time.Time, recs []loader.Record) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO trade_session(product, exchange, sessions, updated_utc)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(product) DO UPDATE SET
			exchange=excluded.exchange,
			sessions=excluded.sessions,
			updated_utc=excluded.updated_utc
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	ts := fixedRFC3339Nano(nowUTC)
	for _, r := range recs {
		if _, err := stmt.Exec(r.Product, r.Exchange, r.Sessions, ts); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteSessions removes products; unknown products are ignored.
func DeleteSessions(db *sql.DB, products ...string) error {
	for _, p := range products {
		if _, err := db.Exec(`DELETE FROM trade_session WHERE product = ?`, p); err != nil {
			return err
		}
	}
	return nil
}

type ReloadEntry struct {
	TSUTC      string `json:"ts_utc"`
	Source     string `json:"source"`
	Merge      bool   `json:"merge"`
	Products   int    `json:"products"`
	Generation string `json:"generation,omitempty"`
	Error      string `json:"error,omitempty"`
}

// InsertReload records the outcome of one reload.
func InsertReload(db *sql.DB, tsUTC time.Time, e ReloadEntry) error {
	merge := 0
	if e.Merge {
		merge = 1
	}
	_, err := db.Exec(`
		INSERT INTO reload_log(ts_utc, source, merge, products, generation, error)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(ts_utc, source) DO UPDATE SET
			merge=excluded.merge,
			products=excluded.products,
			generation=excluded.generation,
			error=excluded.error
	`, fixedRFC3339Nano(tsUTC), e.Source, merge, e.Products, e.Generation, e.Error)
	return err
}
