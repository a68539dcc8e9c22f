package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// ErrUnsupportedType is returned by FromAny for Go values that have no
// document representation.
var ErrUnsupportedType = errors.New("unsupported value type")

// ErrNonFinite is returned for NaN and infinite numbers, which no document
// encoding can represent.
var ErrNonFinite = errors.New("number is not finite")

// CheckFinite walks v and reports the first NaN or infinite number.
func CheckFinite(v Value) error {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return fmt.Errorf("%w: %v", ErrNonFinite, v.n)
		}
	case KindMapping:
		for key, child := range v.m.All() {
			if err := CheckFinite(child); err != nil {
				return fmt.Errorf("key %q: %w", key, err)
			}
		}
	}
	return nil
}

func finite(f float64) (Value, error) {
	v := Number(f)
	if err := CheckFinite(v); err != nil {
		return Value{}, err
	}
	return v, nil
}

// FromAny converts a native Go value into a Value. It accepts nil, bool,
// strings, every integer and float type, json.Number, Value, *Mapping, maps
// with string keys and slices or arrays of supported values. Slices become
// list-like mappings. Keys of Go maps are inserted in sorted order. NaN and
// infinite numbers fail with ErrNonFinite.
func FromAny(in any) (Value, error) {
	switch v := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		if err := CheckFinite(v); err != nil {
			return Value{}, err
		}
		return v.Clone(), nil
	case *Mapping:
		out := Map(v.Clone())
		if err := CheckFinite(out); err != nil {
			return Value{}, err
		}
		return out, nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return Int(v), nil
	case int64:
		return Number(float64(v)), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: number %q: %v", ErrUnsupportedType, v, err)
		}
		return finite(f)
	case map[string]any:
		m := NewMapping()
		for _, key := range sortedKeys(v) {
			child, err := FromAny(v[key])
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", key, err)
			}
			m.Set(key, child)
		}
		return Map(m), nil
	case []any:
		m := NewMapping()
		for i, item := range v {
			child, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			m.Set(indexKey(i), child)
		}
		return Map(m), nil
	}
	return fromReflect(reflect.ValueOf(in))
}

// MustFromAny is FromAny for literals known to be convertible. It panics on
// error.
func MustFromAny(in any) Value {
	v, err := FromAny(in)
	if err != nil {
		panic(err)
	}
	return v
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return FromAny(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return finite(rv.Float())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
		}
		keys := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			keys = append(keys, iter.Key().String())
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, key := range keys {
			child, err := FromAny(rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", key, err)
			}
			m.Set(key, child)
		}
		return Map(m), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null(), nil
		}
		m := NewMapping()
		for i := 0; i < rv.Len(); i++ {
			child, err := FromAny(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			m.Set(indexKey(i), child)
		}
		return Map(m), nil
	}
	if !rv.IsValid() {
		return Null(), nil
	}
	return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
}

// Any converts v into plain Go data: nil, bool, float64, string,
// map[string]any, or []any for list-like mappings. The result shares nothing
// with v.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindMapping:
		if v.m.IsList() {
			out := make([]any, 0, v.m.Len())
			for _, item := range v.m.All() {
				out = append(out, item.Any())
			}
			return out
		}
		out := make(map[string]any, v.m.Len())
		for key, item := range v.m.All() {
			out[key] = item.Any()
		}
		return out
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
