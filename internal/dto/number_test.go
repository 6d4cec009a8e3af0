package dto

import (
	"encoding/json"
	"testing"
)

func TestNumber_Unmarshal(t *testing.T) {
	tests := map[string]struct {
		input string
		valid bool
		value float64
	}{
		"number":          {input: `1500000`, valid: true, value: 1500000},
		"float":           {input: `4.5`, valid: true, value: 4.5},
		"string":          {input: `"250000"`, valid: true, value: 250000},
		"european string": {input: `"1.250.000,50"`, valid: true, value: 1250000.5},
		"thousand dots":   {input: `"1.250.000"`, valid: true, value: 1250000},
		"decimal comma":   {input: `"3,5"`, valid: true, value: 3.5},
		"null":            {input: `null`},
		"empty string":    {input: `""`},
		"text":            {input: `"n/a"`},
		"boolean":         {input: `true`},
		"nan string":      {input: `"NaN"`},
		"infinity string": {input: `"Infinity"`},
		"negative inf":    {input: `"-inf"`},
		"overflow":        {input: `1e400`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var n Number
			if err := json.Unmarshal([]byte(tt.input), &n); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n.Valid != tt.valid {
				t.Fatalf("expected valid=%v, got %+v", tt.valid, n)
			}
			if tt.valid && n.Value != tt.value {
				t.Fatalf("expected %v, got %v", tt.value, n.Value)
			}
		})
	}
}

func TestNumber_InStruct(t *testing.T) {
	var payload struct {
		Revenue Number `json:"revenue"`
		Years   Number `json:"years"`
		Missing Number `json:"missing"`
	}
	if err := json.Unmarshal([]byte(`{"revenue":"2000000","years":12.9}`), &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Revenue.Ptr() == nil || *payload.Revenue.Ptr() != 2000000 {
		t.Fatalf("unexpected revenue: %+v", payload.Revenue)
	}
	if payload.Years.IntPtr() == nil || *payload.Years.IntPtr() != 12 {
		t.Fatalf("unexpected years: %+v", payload.Years)
	}
	if payload.Missing.Ptr() != nil {
		t.Fatalf("expected missing value to stay nil")
	}
}

func TestNumber_IntPtrRange(t *testing.T) {
	tests := map[string]struct {
		input string
		want  *int
	}{
		"in range":       {input: `2147483647`, want: intPtr(2147483647)},
		"negative":       {input: `-12`, want: intPtr(-12)},
		"above int32":    {input: `3000000000`},
		"below int32":    {input: `-3000000000`},
		"string too big": {input: `"3.000.000.000"`},
		"unset":          {input: `null`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var n Number
			if err := json.Unmarshal([]byte(tt.input), &n); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := n.IntPtr()
			switch {
			case tt.want == nil && got != nil:
				t.Fatalf("expected nil, got %d", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Fatalf("expected %d, got %v", *tt.want, got)
			}
		})
	}
}

func intPtr(v int) *int { return &v }
