package loader

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/pcdogyu/tradesession/internal/session"
)

// Encoding names accepted for CSV files without a byte order mark.
const (
	EncodingUTF8 = "utf-8"
	EncodingGBK  = "gbk"
)

// Decoder wraps r so that UTF-8/UTF-16 byte order marks are honored and
// BOM-less input is read with the named fallback encoding.
func Decoder(r io.Reader, enc string) (io.Reader, error) {
	var fallback encoding.Encoding
	switch strings.ToLower(enc) {
	case "", EncodingUTF8, "utf8":
		fallback = unicode.UTF8
	case EncodingGBK:
		fallback = simplifiedchinese.GBK
	case "gb18030":
		fallback = simplifiedchinese.GB18030
	default:
		return nil, errors.Errorf("unsupported encoding %q", enc)
	}
	return transform.NewReader(r, unicode.BOMOverride(fallback.NewDecoder())), nil
}

// ReadCSVRecords reads every CSV row as a Record. JSON inside a field must use
// doubled quotes, as database exports do:
//
//	ag,SHFE,"[{""Begin"":""09:00:00"",""End"":""10:15:00""}]"
func ReadCSVRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, errors.Wrapf(ErrMalformedRow, "read csv: %v", perr)
		}
		return nil, errors.Wrap(err, "read csv")
	}
	return RecordsFromRows(rows)
}

// ReadCSV builds sessions from CSV text.
func ReadCSV(r io.Reader) (map[string]*session.TradeSession, error) {
	recs, err := ReadCSVRecords(r)
	if err != nil {
		return nil, err
	}
	return Build(recs)
}

// ParseCSVContent builds sessions from CSV content held in memory.
func ParseCSVContent(content string) (map[string]*session.TradeSession, error) {
	return ReadCSV(strings.NewReader(content))
}

// ReadCSVFileRecords opens and decodes a CSV file.
func ReadCSVFileRecords(path, enc string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioFailure(path, err)
	}
	defer f.Close()

	dr, err := Decoder(f, enc)
	if err != nil {
		return nil, ioFailure(path, err)
	}
	b, err := io.ReadAll(dr)
	if err != nil {
		return nil, ioFailure(path, err)
	}
	return ReadCSVRecords(bytes.NewReader(b))
}

// ReadCSVFile builds sessions from a CSV file.
func ReadCSVFile(path, enc string) (map[string]*session.TradeSession, error) {
	recs, err := ReadCSVFileRecords(path, enc)
	if err != nil {
		return nil, err
	}
	return Build(recs)
}
