package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite uses a file path DSN.
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

func Migrate(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,

		// sessions holds the JSON column exactly as exported by the exchange tables.
		`CREATE TABLE IF NOT EXISTS trade_session (
			product TEXT PRIMARY KEY,
			exchange TEXT NOT NULL DEFAULT '',
			sessions TEXT NOT NULL,
			updated_utc TEXT NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS reload_log (
			ts_utc TEXT NOT NULL,
			source TEXT NOT NULL, -- "file" | "sqlite" | "postgres" | "redis" | "http"
			merge INTEGER NOT NULL,
			products INTEGER NOT NULL,
			generation TEXT,
			error TEXT,
			PRIMARY KEY (ts_utc, source)
		);`,
	}

	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
