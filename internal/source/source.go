// Package source fetches session records for the manager from the configured backend.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pcdogyu/tradesession/internal/config"
	"github.com/pcdogyu/tradesession/internal/loader"
)

// Source is a bulk provider of session records.
type Source interface {
	Records(ctx context.Context) ([]loader.Record, error)
	// Name is the source kind, used in logs, metrics and the reload log.
	Name() string
	Close() error
}

// New opens the source described by cfg. dbPath backs the sqlite kind.
func New(cfg config.SourceConfig, dbPath string) (Source, error) {
	switch cfg.Kind {
	case config.SourceFile:
		return &File{Path: cfg.Path, Encoding: cfg.Encoding, Sheet: cfg.Sheet}, nil
	case config.SourceSQLite:
		return OpenSQL(config.SourceSQLite, "sqlite", dbPath, cfg.Query)
	case config.SourcePostgres:
		return OpenSQL(config.SourcePostgres, "pgx", cfg.DSN, cfg.Query)
	case config.SourceRedis:
		return NewRedis(cfg.Redis), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

// File reads a .csv or .xlsx export on every call.
type File struct {
	Path     string
	Encoding string
	Sheet    string
}

func (f *File) Records(ctx context.Context) ([]loader.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".xlsx", ".xlsm":
		return loader.ReadXLSXRecords(f.Path, f.Sheet)
	default:
		return loader.ReadCSVFileRecords(f.Path, f.Encoding)
	}
}

func (f *File) Name() string { return config.SourceFile }
func (f *File) Close() error { return nil }
