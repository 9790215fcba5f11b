package pest

import (
	"slices"
	"strings"
)

// Materialize decodes b eagerly into plain Go values that do not reference b:
// map[string]any for structs, []any for arrays (a typed slice copy for arrays
// of non-nullable fixed-width numbers), the member value for unions and nil
// for null.
func Materialize(b []byte, d *Descriptor) (any, error) {
	if err := checkHeader(b, d); err != nil {
		return nil, err
	}
	return materializerFor(d)(&segment{b: b}, headerSize)
}

func materializerFor(d *Descriptor) decodeFunc {
	return memo(&d.codecs.mat, func() decodeFunc { return buildDecoder(d, false) })
}

// Detach converts a value returned by View into the form Materialize returns,
// copying everything that still references the encoded buffer. Plain values
// pass through.
func Detach(v any) (any, error) {
	switch x := v.(type) {
	case *StructView:
		m := make(map[string]any, x.Len())
		for i := range x.acc.fields {
			a := &x.acc.fields[i]
			fv, err := a.read(x.seg, x.base)
			if err != nil {
				return nil, withPath(err, a.name)
			}
			if m[a.name], err = Detach(fv); err != nil {
				return nil, withPath(err, a.name)
			}
		}
		return m, nil
	case *ArrayView:
		out := make([]any, x.Len())
		for i := range out {
			ev, err := x.At(i)
			if err != nil {
				return nil, err
			}
			if out[i], err = Detach(ev); err != nil {
				return nil, withPath(err, indexSeg(i))
			}
		}
		return out, nil
	case string:
		return strings.Clone(x), nil
	case []int8:
		return slices.Clone(x), nil
	case []int16:
		return slices.Clone(x), nil
	case []int32:
		return slices.Clone(x), nil
	case []int64:
		return slices.Clone(x), nil
	case []uint8:
		return slices.Clone(x), nil
	case []uint16:
		return slices.Clone(x), nil
	case []uint32:
		return slices.Clone(x), nil
	case []uint64:
		return slices.Clone(x), nil
	case []float32:
		return slices.Clone(x), nil
	case []float64:
		return slices.Clone(x), nil
	}
	return v, nil
}
