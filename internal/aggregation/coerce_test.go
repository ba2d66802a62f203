package aggregation

import (
	"math"
	"testing"
	"time"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		name  string
		in    any
		want  float64
		valid bool
	}{
		{name: "float", in: 10.0, want: 10, valid: true},
		{name: "int", in: 3, want: 3, valid: true},
		{name: "int64", in: int64(42), want: 42, valid: true},
		{name: "numeric string", in: "12.5", want: 12.5, valid: true},
		{name: "padded string", in: " 7 ", want: 7, valid: true},
		{name: "word", in: "x", valid: false},
		{name: "empty string", in: "", valid: false},
		{name: "nil", in: nil, valid: false},
		{name: "bool", in: true, valid: false},
		{name: "nan", in: math.NaN(), valid: false},
		{name: "inf", in: math.Inf(1), valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToNumber(tt.in)
			if ok != tt.valid {
				t.Fatalf("valid mismatch: got %v want %v", ok, tt.valid)
			}
			if ok && got != tt.want {
				t.Fatalf("value mismatch: got %v want %v", got, tt.want)
			}
		})
	}
}

func TestNumberInvalidIsZero(t *testing.T) {
	if got := Number("abc"); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := Number(nil); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestIsTimestamp(t *testing.T) {
	tests := map[any]bool{
		"2024-01-15":           true,
		"2024-01-15T10:00:00Z": true,
		"2024-01-15 10:00":     true,
		"15/01/2024":           false,
		"hello":                false,
		20240115:               false,
	}
	for in, want := range tests {
		if got := IsTimestamp(in); got != want {
			t.Fatalf("IsTimestamp(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestToTime(t *testing.T) {
	got, ok := ToTime("2024-03-01T10:30:00Z")
	if !ok {
		t.Fatal("expected RFC 3339 timestamp to parse")
	}
	if want := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("time mismatch: got %v want %v", got, want)
	}

	got, ok = ToTime("2024-03-01 trailing text")
	if !ok {
		t.Fatal("expected date prefix to parse")
	}
	if want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("time mismatch: got %v want %v", got, want)
	}

	if _, ok := ToTime("north"); ok {
		t.Fatal("expected non-date string to fail")
	}
	if _, ok := ToTime(12); ok {
		t.Fatal("expected number to fail")
	}
}

func TestKeyString(t *testing.T) {
	row := Row{"f": 100.0, "g": 1.5, "s": "N", "b": true, "i": 3, "n": nil}
	tests := map[string]string{
		"f":       "100",
		"g":       "1.5",
		"s":       "N",
		"b":       "true",
		"i":       "3",
		"n":       "null",
		"missing": "undefined",
	}
	for field, want := range tests {
		if got := KeyString(row, field); got != want {
			t.Fatalf("KeyString(%q) = %q, want %q", field, got, want)
		}
	}
}
