package value

import (
	"strconv"
	"strings"
	"time"
)

// TimeLayouts are the DateTime text forms recognised in CSV fields and
// query literals, tried in order. Values without a zone are UTC.
// Fractional seconds are accepted after the seconds field of any layout.
var TimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// displayLayout is used for DateTime values in UTC with whole seconds.
const displayLayout = "2006-01-02 15:04:05"

// FormatTime renders t the way DateTime values are displayed.
func FormatTime(t time.Time) string {
	if t.Location() == time.UTC && t.Nanosecond() == 0 {
		return t.Format(displayLayout)
	}
	return t.Format(time.RFC3339Nano)
}

// Parse converts raw field text to a Value of type t.
// The empty string is Null for every type except String.
// ok is false when raw is not a valid spelling of t.
func Parse(raw string, t ColumnType) (v Value, ok bool) {
	if raw == "" {
		if t == String {
			return Str(""), true
		}
		return Null(), true
	}

	switch t {
	case String:
		return Str(raw), true
	case Boolean:
		b, ok := ParseBool(raw)
		if !ok {
			return Null(), false
		}
		return Bool(b), true
	case Int64:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Null(), false
		}
		return Int(i), true
	case Float64:
		f, ok := ParseFloat(raw)
		if !ok {
			return Null(), false
		}
		return Float(f), true
	case DateTime:
		ts, ok := ParseTime(raw)
		if !ok {
			return Null(), false
		}
		return Time(ts), true
	default:
		return Null(), false
	}
}

// Fits reports whether raw is a valid non-empty spelling of t.
func Fits(raw string, t ColumnType) bool {
	if raw == "" {
		return false
	}
	_, ok := Parse(raw, t)
	return ok
}

// ParseBool accepts true and false in any letter case.
func ParseBool(s string) (bool, bool) {
	switch {
	case strings.EqualFold(s, "true"):
		return true, true
	case strings.EqualFold(s, "false"):
		return false, true
	default:
		return false, false
	}
}

// ParseFloat accepts decimal notation only; NaN, Inf and hex floats are rejected.
func ParseFloat(s string) (float64, bool) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9', c == '.', c == '-', c == '+', c == 'e', c == 'E':
		default:
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseTime tries each of TimeLayouts in order.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range TimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
