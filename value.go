package pest

import (
	"fmt"
	"math"
	"reflect"

	"golang.org/x/exp/constraints"
)

// record is a struct-shaped value: a map[string]any or a *StructView.
type record interface {
	lookup(name string) (any, bool, error)
	numKeys() int
}

type mapRecord map[string]any

func (m mapRecord) lookup(name string) (any, bool, error) {
	v, ok := m[name]
	return v, ok, nil
}

func (m mapRecord) numKeys() int { return len(m) }

func asRecord(v any) (record, bool) {
	switch r := v.(type) {
	case map[string]any:
		return mapRecord(r), true
	case *StructView:
		return r, r != nil
	}
	return nil, false
}

// sequence is an array-shaped value.
type sequence interface {
	Len() int
	At(i int) (any, error)
}

type anySlice []any

func (s anySlice) Len() int              { return len(s) }
func (s anySlice) At(i int) (any, error) { return s[i], nil }

type reflectSlice struct{ v reflect.Value }

func (s reflectSlice) Len() int              { return s.v.Len() }
func (s reflectSlice) At(i int) (any, error) { return s.v.Index(i).Interface(), nil }

func asSequence(v any) (sequence, bool) {
	switch s := v.(type) {
	case nil, string:
		return nil, false
	case []any:
		return anySlice(s), true
	case *ArrayView:
		return s, s != nil
	}
	rv := reflect.ValueOf(v)
	if k := rv.Kind(); k == reflect.Slice || k == reflect.Array {
		return reflectSlice{rv}, true
	}
	return nil, false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return true
	}
	return false
}

// float64Of converts any Go number to float64.
func float64Of(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uintptr:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func invalid(v any, want string) error {
	return fmt.Errorf("%w: %T, want %s", ErrInvalidValue, v, want)
}

func overflow(v any, want string) error {
	return fmt.Errorf("%w: %v does not fit %s", ErrOverflow, v, want)
}

// int64Of converts a Go number to int64, rejecting fractions and values out of range.
func int64Of(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float32, float64:
		f, _ := float64Of(n)
		if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
			return 0, overflow(v, "int64")
		}
		return int64(f), nil
	}
	u, err := uint64Of(v)
	if err != nil {
		return 0, err
	}
	if u > math.MaxInt64 {
		return 0, overflow(v, "int64")
	}
	return int64(u), nil
}

// uint64Of converts a Go number to uint64, rejecting negatives, fractions and values out of range.
func uint64Of(v any) (uint64, error) {
	switch n := v.(type) {
	case uint:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	case uintptr:
		return uint64(n), nil
	case int, int8, int16, int32, int64:
		i, _ := int64Of(n)
		if i < 0 {
			return 0, overflow(v, "uint64")
		}
		return uint64(i), nil
	case float32, float64:
		f, _ := float64Of(n)
		if f != math.Trunc(f) || f < 0 || f >= 1<<64 {
			return 0, overflow(v, "uint64")
		}
		return uint64(f), nil
	}
	return 0, invalid(v, "number")
}

func signedOf[T constraints.Signed](v any) (T, error) {
	x, err := int64Of(v)
	if err != nil {
		return 0, err
	}
	if int64(T(x)) != x {
		return 0, overflow(v, fmt.Sprintf("%T", T(0)))
	}
	return T(x), nil
}

func unsignedOf[T constraints.Unsigned](v any) (T, error) {
	x, err := uint64Of(v)
	if err != nil {
		return 0, err
	}
	if uint64(T(x)) != x {
		return 0, overflow(v, fmt.Sprintf("%T", T(0)))
	}
	return T(x), nil
}

func floatOf[T constraints.Float](v any) (T, error) {
	f, ok := float64Of(v)
	if !ok {
		return 0, invalid(v, "number")
	}
	return T(f), nil
}
