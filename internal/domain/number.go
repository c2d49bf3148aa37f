package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Number holds a numeric field exactly as it is stored in _source. The cluster
// coerces "5" and 1.0 on write but returns the original text, so every form is kept
// and written back unchanged.
type Number []byte

// MarshalJSON writes the stored value, or null when the field was absent.
func (n Number) MarshalJSON() ([]byte, error) {
	if len(n) == 0 {
		return []byte("null"), nil
	}
	return n, nil
}

// UnmarshalJSON keeps a copy of data.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = append((*n)[0:0], data...)
	return nil
}

// Float64 parses a JSON number or a quoted number.
func (n Number) Float64() (float64, bool) {
	raw := bytes.TrimSpace(n)
	if len(raw) == 0 {
		return 0, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		raw = []byte(s)
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// String formats the value for display. Unparseable values render empty.
func (n Number) String() string {
	f, ok := n.Float64()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// scalarText renders a string, number or boolean as text. Null, absent and
// structured values render empty.
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	default:
		return string(raw)
	}
}

func numberField(fields map[string]json.RawMessage, key string) Number {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	return append(Number(nil), raw...)
}
