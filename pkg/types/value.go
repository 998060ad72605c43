package types

import (
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DateLayout is the calendar date format used by the remote service and by
// Date values rendered as text.
const DateLayout = "2006-01-02"

// Kind identifies the variant held by a Value.
type Kind int

// Value kinds.
const (
	KindNull Kind = iota
	KindStr
	KindI64
	KindF64
	KindBool
	KindDate
	KindList
)

var kindNames = [...]string{
	KindNull: "null",
	KindStr:  "text",
	KindI64:  "integer",
	KindF64:  "float",
	KindBool: "boolean",
	KindDate: "date",
	KindList: "list",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a single cell. The zero Value is Null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
	l    []Value
}

// Null is the absent value.
var Null = Value{}

// Str returns a text value.
func Str(s string) Value { return Value{kind: KindStr, s: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindI64, i: i} }

// Float returns a floating-point value.
func Float(f float64) Value { return Value{kind: KindF64, f: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Date returns a calendar date value. The time of day is discarded.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// List returns a list value holding a copy of vs. List() is an empty list,
// which is distinct from Null.
func List(vs ...Value) Value {
	l := make([]Value, len(vs))
	copy(l, vs)
	return Value{kind: KindList, l: l}
}

// Strs is a convenience for a list of text values.
func Strs(ss ...string) Value {
	l := make([]Value, len(ss))
	for i, s := range ss {
		l[i] = Str(s)
	}
	return Value{kind: KindList, l: l}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsStr returns the text payload.
func (v Value) AsStr() (string, bool) { return v.s, v.kind == KindStr }

// AsInt returns the integer payload.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindI64 }

// AsFloat returns the float payload.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindF64 }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsDate returns the date payload.
func (v Value) AsDate() (time.Time, bool) { return v.t, v.kind == KindDate }

// AsList returns the list payload. The returned slice must not be modified.
func (v Value) AsList() ([]Value, bool) { return v.l, v.kind == KindList }

// Equal reports whether v and o hold the same variant and payload.
// Null equals Null.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindStr:
		return v.s == o.s
	case KindI64:
		return v.i == o.i
	case KindF64:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindDate:
		return v.t.Equal(o.t)
	case KindList:
		if len(v.l) != len(o.l) {
			return false
		}
		for i := range v.l {
			if !v.l[i].Equal(o.l[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders v for display. Null renders as the empty string and list
// elements are joined with ", ".
func (v Value) String() string {
	switch v.kind {
	case KindStr:
		return v.s
	case KindI64:
		return strconv.FormatInt(v.i, 10)
	case KindF64:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format(DateLayout)
	case KindList:
		parts := make([]string, len(v.l))
		for i, e := range v.l {
			parts[i] = e.String()
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// Interface returns v as a plain Go value: nil, string, int64, float64, bool,
// a DateLayout string, or []any.
func (v Value) Interface() any {
	switch v.kind {
	case KindStr:
		return v.s
	case KindI64:
		return v.i
	case KindF64:
		return v.f
	case KindBool:
		return v.b
	case KindDate:
		return v.t.Format(DateLayout)
	case KindList:
		out := make([]any, len(v.l))
		for i, e := range v.l {
			out[i] = e.Interface()
		}
		return out
	}
	return nil
}

// MarshalJSON encodes v as its plain JSON counterpart.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Row is a fixed-width ordered sequence of values.
type Row []Value

// Equal reports whether r and o have the same width and equal cells.
func (r Row) Equal(o Row) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if !r[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Clone returns a copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// KeyedRow pairs a row with the storage key that identifies it.
type KeyedRow struct {
	Key string
	Row Row
}
