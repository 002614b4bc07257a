// Package loader turns exported session tables into TradeSessions.
//
// A table row is either [product, sessions] or [product, exchange, sessions],
// where sessions is the JSON column understood by session.ParseJSON. The exchange
// column is ignored. Any bad row aborts the whole load.
package loader

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/pcdogyu/tradesession/internal/session"
)

var (
	// ErrMalformedRow reports a row that has neither 2 nor 3 fields.
	ErrMalformedRow = errors.New("malformed session row")
	// ErrIOFailure reports a missing, unreadable or undecodable source.
	ErrIOFailure = errors.New("session source io failure")
)

// Record is one product's session column.
type Record struct {
	Product  string `db:"product"`
	Exchange string `db:"exchange"`
	Sessions string `db:"sessions"`
}

// RecordFromFields maps a 2 or 3 field row.
func RecordFromFields(fields []string) (Record, error) {
	switch len(fields) {
	case 2:
		return Record{Product: fields[0], Sessions: fields[1]}, nil
	case 3:
		return Record{Product: fields[0], Exchange: fields[1], Sessions: fields[2]}, nil
	default:
		return Record{}, errors.Wrapf(ErrMalformedRow, "expected 2 or 3 fields, got %d: %q", len(fields), fields)
	}
}

// RecordsFromRows maps every row, skipping a leading header row. A first row
// whose session column mentions a clock time is data and must parse.
func RecordsFromRows(rows [][]string) ([]Record, error) {
	out := make([]Record, 0, len(rows))
	for i, fields := range rows {
		if i == 0 && isHeader(fields) {
			continue
		}
		rec, err := RecordFromFields(fields)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}
		out = append(out, rec)
	}
	return out, nil
}

var clockText = regexp.MustCompile(`\d{1,2}:\d{2}`)

func isHeader(fields []string) bool {
	if len(fields) != 2 && len(fields) != 3 {
		return false
	}
	last := strings.TrimSpace(fields[len(fields)-1])
	if strings.HasPrefix(last, "[") || strings.HasPrefix(last, "{") {
		return false
	}
	return !clockText.MatchString(last)
}

// Build parses every record. Later records win over earlier ones for the same product.
func Build(records []Record) (map[string]*session.TradeSession, error) {
	out := make(map[string]*session.TradeSession, len(records))
	for _, rec := range records {
		ts, err := session.ParseJSON(rec.Sessions)
		if err != nil {
			return nil, errors.Wrapf(err, "product %q", rec.Product)
		}
		out[rec.Product] = ts
	}
	return out, nil
}

// FromJSONMap builds sessions from product -> session column, e.g. a database
// query already keyed by product.
func FromJSONMap(m map[string]string) (map[string]*session.TradeSession, error) {
	return Build(RecordsFromJSONMap(m))
}

// RecordsFromJSONMap flattens a product -> session column map.
func RecordsFromJSONMap(m map[string]string) []Record {
	out := make([]Record, 0, len(m))
	for product, js := range m {
		out = append(out, Record{Product: product, Sessions: js})
	}
	return out
}

func ioFailure(path string, err error) error {
	return errors.Wrapf(ErrIOFailure, "%s: %v", path, err)
}
