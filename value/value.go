// Package value defines the typed data model shared by the reader, the query
// engine and the output formatters: the Value tagged union, ColumnType,
// Schema and Row.
package value

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vegasq/csvcat/qerr"
)

// ColumnType is the inferred type of a column.
type ColumnType uint8

const (
	String ColumnType = iota
	Boolean
	Int64
	Float64
	DateTime
)

// InferenceOrder lists the column types from most to least specific.
// Inference picks the first type every sampled value parses under.
var InferenceOrder = []ColumnType{Boolean, Int64, Float64, DateTime, String}

// String returns the type name.
func (t ColumnType) String() string {
	switch t {
	case String:
		return "String"
	case Boolean:
		return "Boolean"
	case Int64:
		return "Int64"
	case Float64:
		return "Float64"
	case DateTime:
		return "DateTime"
	default:
		return fmt.Sprintf("ColumnType(%d)", uint8(t))
	}
}

// ParseColumnType is the inverse of ColumnType.String, case-insensitive.
func ParseColumnType(s string) (ColumnType, error) {
	for _, t := range InferenceOrder {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return String, fmt.Errorf("unknown column type %q", s)
}

// Kind is the variant tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindBoolean
	KindInt64
	KindFloat64
	KindDateTime
)

// String returns the variant name.
func (k Kind) String() string {
	if k == KindNull {
		return "Null"
	}
	if t, ok := k.ColumnType(); ok {
		return t.String()
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ColumnType maps a non-null kind to its column type.
func (k Kind) ColumnType() (ColumnType, bool) {
	switch k {
	case KindString:
		return String, true
	case KindBoolean:
		return Boolean, true
	case KindInt64:
		return Int64, true
	case KindFloat64:
		return Float64, true
	case KindDateTime:
		return DateTime, true
	default:
		return String, false
	}
}

// Kind maps a column type to the kind of its non-null values.
func (t ColumnType) Kind() Kind {
	switch t {
	case Boolean:
		return KindBoolean
	case Int64:
		return KindInt64
	case Float64:
		return KindFloat64
	case DateTime:
		return KindDateTime
	default:
		return KindString
	}
}

// Value is one typed cell. The zero Value is Null.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	ts   time.Time
}

// Null returns the Null value.
func Null() Value { return Value{} }

// Str returns a String value.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// Bool returns a Boolean value.
func Bool(b bool) Value {
	v := Value{kind: KindBoolean}
	if b {
		v.num = 1
	}
	return v
}

// Int returns an Int64 value.
func Int(i int64) Value { return Value{kind: KindInt64, num: i} }

// Float returns a Float64 value.
func Float(f float64) Value { return Value{kind: KindFloat64, flt: f} }

// Time returns a DateTime value.
func Time(t time.Time) Value { return Value{kind: KindDateTime, ts: t} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the payload of a String value.
func (v Value) AsString() string { return v.str }

// AsBool returns the payload of a Boolean value.
func (v Value) AsBool() bool { return v.num != 0 }

// AsInt returns the payload of an Int64 value.
func (v Value) AsInt() int64 { return v.num }

// AsFloat returns the payload of a Float64 value.
func (v Value) AsFloat() float64 { return v.flt }

// AsTime returns the payload of a DateTime value.
func (v Value) AsTime() time.Time { return v.ts }

// Interface returns the payload as a plain Go value for encoders:
// nil, string, bool, int64, float64 or time.Time.
func (v Value) Interface() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindString:
		return v.str
	case KindBoolean:
		return v.AsBool()
	case KindInt64:
		return v.num
	case KindFloat64:
		return v.flt
	case KindDateTime:
		return v.ts
	default:
		panic(fmt.Sprintf("value: unknown kind %d", v.kind))
	}
}

// String returns the display form of v.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindString:
		return v.str
	case KindBoolean:
		return strconv.FormatBool(v.AsBool())
	case KindInt64:
		return strconv.FormatInt(v.num, 10)
	case KindFloat64:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case KindDateTime:
		return FormatTime(v.ts)
	default:
		panic(fmt.Sprintf("value: unknown kind %d", v.kind))
	}
}

// Compare orders two non-null values of the same kind, returning -1, 0 or 1.
// Values of different kinds, or a Null operand, are a TypeMismatchError.
// Booleans order false before true.
func Compare(a, b Value) (int, error) {
	if a.kind != b.kind || a.kind == KindNull {
		return 0, qerr.TypeMismatch(a.kind.String(), b.kind.String(),
			"cannot compare %s with %s", a.kind, b.kind)
	}

	switch a.kind {
	case KindString:
		return strings.Compare(a.str, b.str), nil
	case KindBoolean, KindInt64:
		return cmpOrdered(a.num, b.num), nil
	case KindFloat64:
		return cmpOrdered(a.flt, b.flt), nil
	case KindDateTime:
		return a.ts.Compare(b.ts), nil
	default:
		panic(fmt.Sprintf("value: unknown kind %d", a.kind))
	}
}

// Equal reports whether a and b are the same variant holding the same payload.
// Two Nulls are equal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	if a.kind == KindNull {
		return true
	}
	c, err := Compare(a, b)
	return err == nil && c == 0
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Row is one decoded record, aligned with its Schema.
type Row []Value

// Strings returns the display form of every cell.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, v := range r {
		out[i] = v.String()
	}
	return out
}
