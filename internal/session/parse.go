package session

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedSessionJSON reports a session column that is not an array of
// {"begin": "HH:MM:SS", "end": "HH:MM:SS"} objects.
var ErrMalformedSessionJSON = errors.New("malformed session json")

// ParseSlicesJSON decodes a session column as stored by the exchange tables, e.g.
//
//	[{"Begin":"09:00:00","End":"10:15:00"},{"Begin":"21:00:00","End":"02:30:00"}]
//
// Keys are matched case-insensitively by lowercasing the whole payload, which is
// safe only while begin and end are the sole fields.
func ParseSlicesJSON(payload string) ([]Slice, error) {
	var doc any
	if err := json.Unmarshal([]byte(strings.ToLower(payload)), &doc); err != nil {
		return nil, errors.Wrapf(ErrMalformedSessionJSON, "%v", err)
	}
	arr, ok := doc.([]any)
	if !ok {
		return nil, errors.Wrap(ErrMalformedSessionJSON, "trade session must be a json array")
	}

	out := make([]Slice, 0, len(arr))
	for i, elem := range arr {
		obj, _ := elem.(map[string]any)
		b, okb := obj["begin"].(string)
		e, oke := obj["end"].(string)
		if !okb || !oke {
			return nil, errors.Wrapf(ErrMalformedSessionJSON, "element %d: begin/end strings required", i)
		}
		begin, err := ParseTimeOfDay(b)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedSessionJSON, "element %d: %v", i, err)
		}
		end, err := ParseTimeOfDay(e)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedSessionJSON, "element %d: %v", i, err)
		}
		s, err := NewSlice(begin, end)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out = append(out, s)
	}
	return out, nil
}

// ParseJSON decodes a session column into a normalized TradeSession.
func ParseJSON(payload string) (*TradeSession, error) {
	slices, err := ParseSlicesJSON(payload)
	if err != nil {
		return nil, err
	}
	return NewFromSlices(slices), nil
}

type sliceJSON struct {
	Begin string `json:"Begin"`
	End   string `json:"End"`
}

// MarshalJSON writes the slices back in the column format, nominal times.
// The end-of-day bound reached from minute 1439 is written as 19:59:59, the
// last end ParseJSON accepts.
func (ts *TradeSession) MarshalJSON() ([]byte, error) {
	out := make([]sliceJSON, 0, len(ts.slices))
	for _, s := range ts.slices {
		end := s.end
		if end == endOfShiftedDay {
			end = ShiftedTime{secs: SecsInOneDay - 1}
		}
		out = append(out, sliceJSON{Begin: s.begin.Nominal().String(), End: end.Nominal().String()})
	}
	return json.Marshal(out)
}
