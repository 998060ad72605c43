package engine

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/mesh-intelligence/ghsql/pkg/types"
)

// encode converts a cell to a SQLite driver value. Booleans are stored as
// 0/1, dates as DateLayout text and lists as JSON arrays.
func encode(v types.Value) (any, error) {
	switch v.Kind() {
	case types.KindNull:
		return nil, nil
	case types.KindStr:
		s, _ := v.AsStr()
		return s, nil
	case types.KindI64:
		i, _ := v.AsInt()
		return i, nil
	case types.KindF64:
		f, _ := v.AsFloat()
		return f, nil
	case types.KindBool:
		b, _ := v.AsBool()
		return boolInt(b), nil
	case types.KindDate:
		d, _ := v.AsDate()
		return d.Format(types.DateLayout), nil
	case types.KindList:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode list: %w", err)
		}
		return string(data), nil
	}
	return nil, fmt.Errorf("cannot encode %s value", v.Kind())
}

// decode converts a driver value read from a column of the declared type
// back to a cell. Values that do not fit the declared type keep the type
// SQLite stored them with.
func decode(raw any, declared types.DataType) types.Value {
	if raw == nil {
		return types.Null
	}
	switch declared {
	case types.TypeList:
		if s, ok := driverString(raw); ok {
			if v, ok := decodeList(s); ok {
				return v
			}
		}
	case types.TypeBoolean:
		if i, ok := raw.(int64); ok {
			return types.Bool(i != 0)
		}
	case types.TypeDate:
		if s, ok := driverString(raw); ok {
			if d, err := time.Parse(types.DateLayout, s); err == nil {
				return types.Date(d)
			}
		}
	case types.TypeFloat:
		if i, ok := raw.(int64); ok {
			return types.Float(float64(i))
		}
	}

	switch x := raw.(type) {
	case int64:
		return types.Int(x)
	case float64:
		return types.Float(x)
	case bool:
		return types.Bool(x)
	case string:
		return types.Str(x)
	case []byte:
		return types.Str(string(x))
	case time.Time:
		return types.Date(x)
	}
	return types.Str(fmt.Sprint(raw))
}

func decodeList(s string) (types.Value, bool) {
	var elems []any
	if err := json.Unmarshal([]byte(s), &elems); err != nil {
		return types.Null, false
	}
	vs := make([]types.Value, len(elems))
	for i, e := range elems {
		vs[i] = jsonValue(e)
	}
	return types.List(vs...), true
}

func jsonValue(e any) types.Value {
	switch x := e.(type) {
	case nil:
		return types.Null
	case string:
		return types.Str(x)
	case bool:
		return types.Bool(x)
	case float64:
		return types.Float(x)
	case []any:
		vs := make([]types.Value, len(x))
		for i, ee := range x {
			vs[i] = jsonValue(ee)
		}
		return types.List(vs...)
	}
	return types.Str(fmt.Sprint(e))
}

// sameDriverValue reports whether an encoded cell and a value read back
// from SQLite hold the same content. Numbers compare by value since column
// affinity may turn an integer into a real.
func sameDriverValue(enc, raw any) bool {
	switch x := raw.(type) {
	case []byte:
		raw = string(x)
	case bool:
		raw = boolInt(x)
	case time.Time:
		raw = x.Format(types.DateLayout)
	}
	if a, ok := number(enc); ok {
		b, ok := number(raw)
		return ok && a == b
	}
	return enc == raw
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func driverString(raw any) (string, bool) {
	switch x := raw.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	}
	return "", false
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
