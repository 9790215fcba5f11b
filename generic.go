package pest

import (
	"encoding"
	"fmt"
	"io"
)

// ViewAs views b as d and asserts the result to T, such as *StructView,
// *ArrayView or []float32.
func ViewAs[T any](b []byte, d *Descriptor) (T, error) {
	v, err := View(b, d)
	if err != nil {
		var zero T
		return zero, err
	}
	return assertAs[T](v, d)
}

// MaterializeAs materializes b as d and asserts the result to T, such as
// map[string]any or []any.
func MaterializeAs[T any](b []byte, d *Descriptor) (T, error) {
	v, err := Materialize(b, d)
	if err != nil {
		var zero T
		return zero, err
	}
	return assertAs[T](v, d)
}

func assertAs[T any](v any, d *Descriptor) (T, error) {
	t, ok := v.(T)
	if !ok {
		return t, fmt.Errorf("%w: %s decodes to %T, not %T", ErrTypeMismatch, d, v, t)
	}
	return t, nil
}

// ReadFromGeneric provides a non-streaming io.ReaderFrom on top of
// UnmarshalBinary. It buffers all of r, so it suits only bounded inputs.
// The buffer is reused, so UnmarshalBinary must not retain data.
func ReadFromGeneric[T encoding.BinaryUnmarshaler](v T, r io.Reader) (int64, error) {
	buf := getBytesBuffer()
	defer putBytesBuffer(buf)

	n, err := buf.ReadFrom(r)
	if err != nil {
		return n, err
	}
	return n, v.UnmarshalBinary(buf.Bytes())
}
