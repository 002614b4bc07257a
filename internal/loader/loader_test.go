package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/pcdogyu/tradesession/internal/session"
)

const agJSON = `[{"Begin":"09:00:00","End":"10:15:00"},{"Begin":"10:30:00","End":"11:30:00"},` +
	`{"Begin":"13:30:00","End":"15:00:00"},{"Begin":"21:00:00","End":"02:30:00"}]`

const sampleCSV = `product,exchange,sessions
ag,SHFE,"[{""Begin"":""09:00:00"",""End"":""10:15:00""},{""Begin"":""10:30:00"",""End"":""11:30:00""},{""Begin"":""13:30:00"",""End"":""15:00:00""},{""Begin"":""21:00:00"",""End"":""02:30:00""}]"
IF,CFFEX,"[{""Begin"":""09:30:00"",""End"":""11:30:00""},{""Begin"":""13:00:00"",""End"":""15:00:00""}]"
`

func TestParseCSVContent(t *testing.T) {
	m, err := ParseCSVContent(sampleCSV)
	require.NoError(t, err)
	require.Len(t, m, 2)

	ag := m["ag"]
	require.NotNil(t, ag)
	require.True(t, ag.HasNight())
	require.Equal(t, session.Clock(21, 0, 0), ag.DayBegin())
	require.True(t, ag.InSession(session.Clock(1, 15, 0), true, false))
	require.False(t, ag.InSession(session.Clock(16, 0, 0), true, false))

	require.Equal(t, session.Clock(9, 30, 0), m["IF"].DayBegin())
	require.Nil(t, m["if"])
}

func TestParseCSVTwoFieldsWithoutHeader(t *testing.T) {
	content := `rb,"[{""Begin"":""21:00:00"",""End"":""23:00:00""},{""Begin"":""09:00:00"",""End"":""10:15:00""}]"` + "\n"
	m, err := ParseCSVContent(content)
	require.NoError(t, err)
	require.Len(t, m, 1)
	require.Len(t, m["rb"].Slices(), 2)
}

func TestParseCSVMalformedRow(t *testing.T) {
	content := sampleCSV + `cu,SHFE,extra,"[]"` + "\n"
	m, err := ParseCSVContent(content)
	require.ErrorIs(t, err, ErrMalformedRow)
	require.Nil(t, m)

	_, err = ParseCSVContent("justone\n")
	require.ErrorIs(t, err, ErrMalformedRow)
}

func TestParseCSVMalformedJSON(t *testing.T) {
	content := `cu,SHFE,"{""not"":""array""}"` + "\n"
	_, err := ParseCSVContent(content)
	require.ErrorIs(t, err, session.ErrMalformedSessionJSON)
}

func TestParseCSVMalformedFirstRowIsNotAHeader(t *testing.T) {
	cases := map[string]string{
		"dash range":   "rb,09:00:00-10:15:00\n",
		"three fields": "rb,SHFE,21:00~23:00\n",
		"before data":  "rb,09:00-10:15\n" + `IF,"[{""Begin"":""09:30:00"",""End"":""11:30:00""}]"` + "\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			m, err := ParseCSVContent(content)
			require.ErrorIs(t, err, session.ErrMalformedSessionJSON)
			require.Nil(t, m)
		})
	}
}

func TestParseCSVSyntaxError(t *testing.T) {
	_, err := ParseCSVContent(`rb,[{"Begin":"09:00:00","End":"10:15:00"}]` + "\n")
	require.ErrorIs(t, err, ErrMalformedRow)
}

func TestIsHeader(t *testing.T) {
	require.True(t, isHeader([]string{"product", "exchange", "sessions"}))
	require.True(t, isHeader([]string{"品种", "交易时段"}))
	require.False(t, isHeader([]string{"rb", "09:00:00-10:15:00"}))
	require.False(t, isHeader([]string{"rb", "[]"}))
	require.False(t, isHeader([]string{"a", "b", "c", "d"}))
}

func TestParseCSVInvalidRange(t *testing.T) {
	content := `cu,"[{""begin"":""10:00:00"",""end"":""09:00:00""}]"` + "\n"
	_, err := ParseCSVContent(content)
	require.ErrorIs(t, err, session.ErrInvalidRange)
}

func TestFromJSONMap(t *testing.T) {
	m, err := FromJSONMap(map[string]string{
		"ag": agJSON,
		"T":  `[{"Begin":"09:30:00","End":"11:30:00"},{"Begin":"13:00:00","End":"15:15:00"}]`,
	})
	require.NoError(t, err)
	require.Len(t, m, 2)
	require.Equal(t, session.Clock(15, 15, 0), m["T"].DayEnd())

	_, err = FromJSONMap(map[string]string{"x": `{"not":"array"}`})
	require.ErrorIs(t, err, session.ErrMalformedSessionJSON)
}

func TestReadCSVFileEncodings(t *testing.T) {
	dir := t.TempDir()
	content := "品种,交易所,交易时段\nag,上期所,\"" + `[{""Begin"":""09:00:00"",""End"":""10:15:00""}]` + "\"\n"

	gbk, err := simplifiedchinese.GBK.NewEncoder().String(content)
	require.NoError(t, err)
	gbkPath := filepath.Join(dir, "gbk.csv")
	require.NoError(t, os.WriteFile(gbkPath, []byte(gbk), 0o644))

	recs, err := ReadCSVFileRecords(gbkPath, EncodingGBK)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "上期所", recs[0].Exchange)

	bomPath := filepath.Join(dir, "bom.csv")
	require.NoError(t, os.WriteFile(bomPath, append([]byte{0xEF, 0xBB, 0xBF}, content...), 0o644))
	// The byte order mark wins over the configured fallback.
	m, err := ReadCSVFile(bomPath, EncodingGBK)
	require.NoError(t, err)
	require.Contains(t, m, "ag")
}

func TestReadCSVFileMissing(t *testing.T) {
	_, err := ReadCSVFile(filepath.Join(t.TempDir(), "missing.csv"), "")
	require.ErrorIs(t, err, ErrIOFailure)
}

func TestDecoderUnsupported(t *testing.T) {
	_, err := Decoder(nil, "latin-9")
	require.Error(t, err)
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"product", "exchange", "sessions"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"ag", "SHFE", agJSON}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"IF", "CFFEX", `[{"Begin":"09:30:00","End":"11:30:00"}]`}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	m, err := ReadXLSX(path, "")
	require.NoError(t, err)
	require.Len(t, m, 2)
	require.True(t, m["ag"].HasNight())

	_, err = ReadXLSX(path, "NoSuchSheet")
	require.ErrorIs(t, err, ErrIOFailure)

	_, err = ReadXLSX(filepath.Join(t.TempDir(), "missing.xlsx"), "")
	require.ErrorIs(t, err, ErrIOFailure)
}

func TestRecordFromFields(t *testing.T) {
	rec, err := RecordFromFields([]string{"ag", "SHFE", agJSON})
	require.NoError(t, err)
	require.Equal(t, Record{Product: "ag", Exchange: "SHFE", Sessions: agJSON}, rec)

	_, err = RecordFromFields([]string{"a", "b", "c", "d"})
	require.ErrorIs(t, err, ErrMalformedRow)
}
