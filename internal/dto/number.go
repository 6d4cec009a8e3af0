package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a JSON numeric field that web forms sometimes send as a string
// ("1.250.000", "3,5"). Null, "", unparsable strings and non-finite values
// decode to unset.
type Number struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode numeric string: %w", err)
		}
		if f, ok := parseLooseNumber(s); ok {
			n.Value, n.Valid = f, true
		}
		return nil
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || !isFinite(f) {
		// booleans, objects and arrays are ignored rather than rejected
		return nil
	}
	n.Value, n.Valid = f, true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns the value as a pointer, nil when unset.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// IntPtr truncates the value to an int pointer. It is nil when unset or
// outside the range of a Postgres integer column.
func (n Number) IntPtr() *int {
	if !n.Valid || n.Value < math.MinInt32 || n.Value > math.MaxInt32 {
		return nil
	}
	v := int(n.Value)
	return &v
}

func parseLooseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, isFinite(f)
	}

	// European formatting: "." thousands separator and "," decimal separator.
	cleaned := strings.ReplaceAll(s, " ", "")
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else if strings.Count(cleaned, ".") > 1 {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || !isFinite(f) {
		return 0, false
	}
	return f, true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
