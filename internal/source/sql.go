package source

import (
	"context"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/pcdogyu/tradesession/internal/loader"
)

// DefaultQuery reads the table maintained by store/sqlite. Custom queries must
// return the columns product, exchange and sessions.
const DefaultQuery = `SELECT product, COALESCE(exchange, '') AS exchange, sessions FROM trade_session`

// SQL selects session records through any database/sql driver.
type SQL struct {
	name  string
	db    *sqlx.DB
	query string
}

// OpenSQL opens driverName ("sqlite" or "pgx") at dsn.
func OpenSQL(name, driverName, dsn, query string) (*SQL, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	return NewSQL(name, db, query), nil
}

// NewSQL wraps an open handle; the handle is closed by Close.
func NewSQL(name string, db *sqlx.DB, query string) *SQL {
	if query == "" {
		query = DefaultQuery
	}
	return &SQL{name: name, db: db, query: query}
}

func (s *SQL) Records(ctx context.Context) ([]loader.Record, error) {
	var out []loader.Record
	if err := s.db.SelectContext(ctx, &out, s.query); err != nil {
		return nil, errors.Wrapf(err, "%s query", s.name)
	}
	return out, nil
}

func (s *SQL) Name() string { return s.name }
func (s *SQL) Close() error { return s.db.Close() }
