package sqlite

import (
	"database/sql"

	"github.com/pcdogyu/tradesession/internal/loader"
)

// QuerySessions returns every stored product, ordered by product.
func QuerySessions(db *sql.DB) ([]loader.Record, error) {
	rows, err := db.Query(`
		SELECT product, exchange, sessions
		FROM trade_session
		ORDER BY product
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []loader.Record
	for rows.Next() {
		var r loader.Record
		if err := rows.Scan(&r.Product, &r.Exchange, &r.Sessions); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// QuerySessionJSONMap returns product -> session column.
func QuerySessionJSONMap(db *sql.DB) (map[string]string, error) {
	recs, err := QuerySessions(db)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(recs))
	for _, r := range recs {
		out[r.Product] = r.Sessions
	}
	return out, nil
}

func QueryReloads(db *sql.DB, limit int) ([]ReloadEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT ts_utc, source, merge, products, COALESCE(generation, ''), COALESCE(error, '')
		FROM reload_log
		ORDER BY ts_utc DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ReloadEntry, 0, limit)
	for rows.Next() {
		var e ReloadEntry
		var merge int
		if err := rows.Scan(&e.TSUTC, &e.Source, &merge, &e.Products, &e.Generation, &e.Error); err != nil {
			return nil, err
		}
		e.Merge = merge != 0
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	reverse(out)
	return out, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
