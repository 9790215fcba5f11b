package pest

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/exp/constraints"
)

type number interface {
	constraints.Integer | constraints.Float
}

// nativeLittle reports whether wire bytes can be reinterpreted in place.
var nativeLittle = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// bulkEncode writes a typed slice whose Go element type matches the numeric
// primitive id. It reports false if v is not such a slice.
func bulkEncode(w *buffer, ptr int, id int32, v any) (int, bool, error) {
	switch id {
	case IDInt8:
		if s, ok := v.([]int8); ok {
			return putTyped(w, ptr, s)
		}
	case IDInt16:
		if s, ok := v.([]int16); ok {
			return putTyped(w, ptr, s)
		}
	case IDInt32:
		if s, ok := v.([]int32); ok {
			return putTyped(w, ptr, s)
		}
	case IDInt64:
		if s, ok := v.([]int64); ok {
			return putTyped(w, ptr, s)
		}
	case IDUint8:
		if s, ok := v.([]uint8); ok {
			return putTyped(w, ptr, s)
		}
	case IDUint16:
		if s, ok := v.([]uint16); ok {
			return putTyped(w, ptr, s)
		}
	case IDUint32:
		if s, ok := v.([]uint32); ok {
			return putTyped(w, ptr, s)
		}
	case IDUint64:
		if s, ok := v.([]uint64); ok {
			return putTyped(w, ptr, s)
		}
	case IDFloat32:
		if s, ok := v.([]float32); ok {
			return putTyped(w, ptr, s)
		}
	case IDFloat64:
		if s, ok := v.([]float64); ok {
			return putTyped(w, ptr, s)
		}
	}
	return ptr, false, nil
}

func putTyped[T number](w *buffer, ptr int, s []T) (int, bool, error) {
	n := len(s) * int(unsafe.Sizeof(T(0)))
	w.reserve(ptr, n)
	if _, err := binary.Encode(w.b[ptr:ptr+n], binary.LittleEndian, s); err != nil {
		return ptr, true, err
	}
	return ptr + n, true, nil
}

// typedSlice decodes n elements of the numeric primitive id stored at b[at:].
// With alias set the result shares memory with b when the host byte order and
// the address alignment allow it; otherwise it is a copy.
func typedSlice(b []byte, at, n int, id int32, alias bool) (any, error) {
	switch id {
	case IDInt8:
		return loadTyped[int8](b, at, n, alias)
	case IDInt16:
		return loadTyped[int16](b, at, n, alias)
	case IDInt32:
		return loadTyped[int32](b, at, n, alias)
	case IDInt64:
		return loadTyped[int64](b, at, n, alias)
	case IDUint8:
		return loadTyped[uint8](b, at, n, alias)
	case IDUint16:
		return loadTyped[uint16](b, at, n, alias)
	case IDUint32:
		return loadTyped[uint32](b, at, n, alias)
	case IDUint64:
		return loadTyped[uint64](b, at, n, alias)
	case IDFloat32:
		return loadTyped[float32](b, at, n, alias)
	case IDFloat64:
		return loadTyped[float64](b, at, n, alias)
	}
	return nil, corrupt("primitive %d has no typed form", id)
}

func loadTyped[T number](b []byte, at, n int, alias bool) (any, error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if at < 0 || at > len(b) || n > (len(b)-at)/size {
		return nil, corrupt("%d elements of %d bytes at offset %d overrun %d byte buffer", n, size, at, len(b))
	}
	if n == 0 {
		return []T{}, nil
	}
	region := b[at : at+n*size]
	p := unsafe.Pointer(&region[0])
	if alias && nativeLittle && uintptr(p)%unsafe.Alignof(zero) == 0 {
		return unsafe.Slice((*T)(p), n), nil
	}
	out := make([]T, n)
	if _, err := binary.Decode(region, binary.LittleEndian, out); err != nil {
		return nil, corrupt("typed array: %v", err)
	}
	return out, nil
}
