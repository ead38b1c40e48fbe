package core

// convert.go converts between the string form of filter values and
// PostgreSQL types, and back from scanned column values to the JSON and CSV
// representations served by the API.
//
// All ToPg* functions return pgtype values with Valid=false for empty/invalid
// input. The query parser treats an invalid result as a bad filter value.

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// dateLayouts are tried in order; ISO first.
var dateLayouts = []string{
	"2006-01-02", "2006/01/02", "2006.01.02",
	"1/2/2006", "01/02/2006",
	"Jan 2, 2006", "2 Jan 2006",
	"20060102",
}

// dateFormat is the output layout for date columns.
const dateFormat = "2006-01-02"

// ToPgDate converts a string to pgtype.Date.
func ToPgDate(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{Valid: false}
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return pgtype.Date{Time: t, Valid: true}
		}
	}

	return pgtype.Date{Valid: false}
}

// ToPgNumeric converts a string to pgtype.Numeric.
// Handles currency symbols, thousands separators, and accounting format (parentheses for negative).
func ToPgNumeric(s string) pgtype.Numeric {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Numeric{Valid: false}
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return pgtype.Numeric{Valid: false}
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{Valid: false}
	}

	return n
}

// ToPgBool converts a string to pgtype.Bool.
// Accepts various representations: true/false, yes/no, t/f, y/n, 1/0.
func ToPgBool(s string) pgtype.Bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return pgtype.Bool{Valid: false}
	}

	switch s {
	case "true", "t", "yes", "y", "1":
		return pgtype.Bool{Bool: true, Valid: true}
	case "false", "f", "no", "n", "0":
		return pgtype.Bool{Bool: false, Valid: true}
	default:
		return pgtype.Bool{Valid: false}
	}
}

// ToPgInt8 converts a string to pgtype.Int8.
// Returns invalid if the string is empty or not a base-10 integer.
func ToPgInt8(s string) pgtype.Int8 {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return pgtype.Int8{Valid: false}
	}
	return pgtype.Int8{Int64: i, Valid: true}
}

// validFilterValue reports whether value parses as the column type.
func validFilterValue(t FieldType, value string) bool {
	switch t {
	case FieldNumeric:
		return ToPgNumeric(value).Valid
	case FieldDate:
		return ToPgDate(value).Valid
	case FieldBool:
		return ToPgBool(value).Valid
	case FieldInt:
		return ToPgInt8(value).Valid
	default:
		return true
	}
}

// CellValue converts a value returned by pgx.Rows.Values into a JSON-friendly
// value. Numerics become decimal strings so no precision is lost, dates lose
// their time component, and UUIDs are formatted.
func CellValue(t FieldType, v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		return numericString(val)
	case time.Time:
		if t == FieldDate {
			return val.Format(dateFormat)
		}
		return val.UTC().Format(time.RFC3339)
	case [16]byte:
		return uuid.UUID(val).String()
	case []byte:
		return hex.EncodeToString(val)
	default:
		return val
	}
}

// FormatCell renders a value for a CSV cell. NULL becomes an empty cell.
func FormatCell(t FieldType, v interface{}) string {
	switch val := CellValue(t, v).(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func numericString(n pgtype.Numeric) string {
	v, err := n.Value()
	if err != nil || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
