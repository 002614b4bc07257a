package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSlicesJSON(t *testing.T) {
	payload := `[{"Begin":"09:00:00","end":"10:15:00"},{"Begin":"21:00:00","End":"01:00:00"}]`
	slices, err := ParseSlicesJSON(payload)
	require.NoError(t, err)
	require.Len(t, slices, 2)
	require.Equal(t, Shift(Clock(21, 0, 0)), slices[1].Begin())
	require.Equal(t, Shift(Clock(1, 0, 0)), slices[1].End())
	require.True(t, slices[1].IsNight())
}

func TestParseSlicesJSONErrors(t *testing.T) {
	cases := map[string]string{
		"object":        `{"not":"array"}`,
		"not json":      `[{"begin":`,
		"missing end":   `[{"begin":"09:00:00"}]`,
		"number values": `[{"begin":900,"end":1015}]`,
		"bad clock":     `[{"begin":"9h","end":"10:15:00"}]`,
		"scalar elem":   `["09:00:00"]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSlicesJSON(payload)
			require.ErrorIs(t, err, ErrMalformedSessionJSON)
		})
	}

	_, err := ParseSlicesJSON(`[{"begin":"10:00:00","end":"09:00:00"}]`)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestParseJSONNormalizes(t *testing.T) {
	ts, err := ParseJSON(`[{"Begin":"13:30:00","End":"15:00:00"},{"Begin":"09:00:00","End":"10:15:00"},` +
		`{"Begin":"10:15:00","End":"11:30:00"},{"Begin":"21:00:00","End":"02:30:00"}]`)
	require.NoError(t, err)
	require.Len(t, ts.Slices(), 3)
	require.Equal(t, Clock(21, 0, 0), ts.DayBegin())
	require.Equal(t, Clock(9, 0, 0), ts.MorningBegin())
}

func TestMarshalJSON(t *testing.T) {
	b, err := json.Marshal(NewBondSession())
	require.NoError(t, err)
	require.JSONEq(t, `[{"Begin":"09:30:00","End":"11:30:00"},{"Begin":"13:00:00","End":"15:15:00"}]`, string(b))

	back, err := ParseJSON(string(b))
	require.NoError(t, err)
	require.Equal(t, NewBondSession().Slices(), back.Slices())
}

func TestMarshalJSONLastMinute(t *testing.T) {
	ts := NewFromMinutes([]uint16{1438, 1439})
	b, err := json.Marshal(ts)
	require.NoError(t, err)
	require.JSONEq(t, `[{"Begin":"19:58:00","End":"19:59:59"}]`, string(b))

	back, err := ParseJSON(string(b))
	require.NoError(t, err)
	require.True(t, back.InSession(Clock(19, 59, 30), true, false))
	require.Equal(t, Clock(19, 59, 59), back.DayEnd())
}
