package loader

import (
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/pcdogyu/tradesession/internal/session"
)

// ReadXLSXRecords reads the rows of sheet, or of the first sheet when sheet is
// empty, from a workbook laid out like the CSV export.
func ReadXLSXRecords(path, sheet string) ([]Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, ioFailure(path, err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ioFailure(path, errors.New("workbook has no sheets"))
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, ioFailure(path, err)
	}
	return RecordsFromRows(dropEmptyRows(rows))
}

// ReadXLSX builds sessions from a workbook.
func ReadXLSX(path, sheet string) (map[string]*session.TradeSession, error) {
	recs, err := ReadXLSXRecords(path, sheet)
	if err != nil {
		return nil, err
	}
	return Build(recs)
}

func dropEmptyRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, r := range rows {
		if len(r) > 0 {
			out = append(out, r)
		}
	}
	return out
}
