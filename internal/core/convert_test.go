package core

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ----------------------------------------------------------------------------
// ToPg* Tests
// ----------------------------------------------------------------------------

func TestToPgNumeric(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue string
	}{
		{name: "positive integer", input: "123", wantValid: true, wantValue: "123"},
		{name: "negative decimal", input: "-456.5", wantValid: true, wantValue: "-456.5"},
		{name: "currency and thousands", input: "$1,234.56", wantValid: true, wantValue: "1234.56"},
		{name: "euro", input: "€99", wantValid: true, wantValue: "99"},
		{name: "accounting negative", input: "(42.00)", wantValid: true, wantValue: "-42.00"},
		{name: "empty", input: "   ", wantValid: false},
		{name: "letters", input: "12abc", wantValid: false},
		{name: "two dots", input: "1.2.3", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgNumeric(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgNumeric(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if tt.wantValid && numericString(got) != tt.wantValue {
				t.Errorf("ToPgNumeric(%q) = %s, want %s", tt.input, numericString(got), tt.wantValue)
			}
		})
	}
}

func TestToPgDate(t *testing.T) {
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, input := range []string{"2024-03-01", "2024/03/01", "3/1/2024", "03/01/2024", "Mar 1, 2024", "20240301"} {
		got := ToPgDate(input)
		if !got.Valid || !got.Time.Equal(want) {
			t.Errorf("ToPgDate(%q) = %v (valid %v), want %v", input, got.Time, got.Valid, want)
		}
	}

	for _, input := range []string{"", "yesterday", "2024-13-01", "3/1/24"} {
		if got := ToPgDate(input); got.Valid {
			t.Errorf("ToPgDate(%q) valid, want invalid", input)
		}
	}
}

func TestToPgBool(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		wantBool  bool
	}{
		{"true", true, true},
		{"YES", true, true},
		{" 1 ", true, true},
		{"f", true, false},
		{"no", true, false},
		{"maybe", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		got := ToPgBool(tt.input)
		if got.Valid != tt.wantValid || got.Bool != tt.wantBool {
			t.Errorf("ToPgBool(%q) = %+v, want valid=%v bool=%v", tt.input, got, tt.wantValid, tt.wantBool)
		}
	}
}

func TestToPgInt8(t *testing.T) {
	if got := ToPgInt8(" 9007199254740993 "); !got.Valid || got.Int64 != 9007199254740993 {
		t.Errorf("ToPgInt8 large = %+v, want exact value", got)
	}
	for _, input := range []string{"", "1.5", "ten"} {
		if got := ToPgInt8(input); got.Valid {
			t.Errorf("ToPgInt8(%q) valid, want invalid", input)
		}
	}
}


// ----------------------------------------------------------------------------
// Cell formatting Tests
// ----------------------------------------------------------------------------

func TestCellValue(t *testing.T) {
	ts := time.Date(2024, 3, 1, 15, 4, 5, 0, time.FixedZone("EST", -5*3600))
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		name  string
		typ   FieldType
		input interface{}
		want  interface{}
	}{
		{"nil", FieldText, nil, nil},
		{"text", FieldText, "abc", "abc"},
		{"int", FieldInt, int64(7), int64(7)},
		{"numeric", FieldNumeric, ToPgNumeric("10.50"), "10.50"},
		{"null numeric", FieldNumeric, pgtype.Numeric{}, nil},
		{"date", FieldDate, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "2024-03-01"},
		{"timestamp", FieldText, ts, "2024-03-01T20:04:05Z"},
		{"uuid", FieldText, [16]byte(id), id.String()},
		{"bool", FieldBool, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CellValue(tt.typ, tt.input); got != tt.want {
				t.Errorf("CellValue(%v) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name  string
		typ   FieldType
		input interface{}
		want  string
	}{
		{"nil", FieldText, nil, ""},
		{"bool", FieldBool, false, "false"},
		{"int64", FieldInt, int64(-3), "-3"},
		{"int32", FieldInt, int32(12), "12"},
		{"float", FieldNumeric, 1.25, "1.25"},
		{"numeric", FieldNumeric, ToPgNumeric("1,000"), "1000"},
		{"already formatted", FieldDate, "2024-03-01", "2024-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCell(tt.typ, tt.input); got != tt.want {
				t.Errorf("FormatCell(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFieldTypeString(t *testing.T) {
	if FieldNumeric.String() != "numeric" || FieldType(99).String() != "unknown" {
		t.Errorf("FieldType.String mismatch: %s %s", FieldNumeric, FieldType(99))
	}
}
