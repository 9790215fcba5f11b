package pest

import "fmt"

// encodeFunc writes v at ptr and returns the offset just past it.
type encodeFunc func(w *buffer, ptr int, v any) (int, error)

// Options tunes Encode and View. The zero value is the default.
type Options struct {
	// InitialSize is the starting size of the encode buffer. It grows by
	// doubling, so a good estimate only saves copies.
	InitialSize int

	// UnsafeStrings makes strings returned by views alias the input buffer
	// instead of copying it. The buffer must then not be modified while
	// those strings are in use.
	UnsafeStrings bool
}

// Encode serializes v as d, header included.
//
// Structs take a map[string]any (or a *StructView); arrays take any slice, a
// typed numeric slice being copied in bulk; nil is null. Dates are time.Time
// and regular expressions *regexp.Regexp.
func Encode(v any, d *Descriptor) ([]byte, error) {
	return EncodeWith(v, d, Options{})
}

// EncodeWith is Encode with explicit options.
func EncodeWith(v any, d *Descriptor, opts Options) ([]byte, error) {
	w := newBuffer(opts.InitialSize)
	n, err := encodeInto(w, v, d)
	if err != nil {
		return nil, err
	}
	return w.b[:n], nil
}

func encodeInto(w *buffer, v any, d *Descriptor) (int, error) {
	if v == nil && d.kind != KindLiteral && d.kind != KindUnion {
		return 0, fmt.Errorf("%w: root %s", ErrNullValue, d)
	}
	w.reserve(0, headerSize)
	HeaderOf(d).put(w.b)
	return encoderFor(d)(w, headerSize, v)
}

func encoderFor(d *Descriptor) encodeFunc {
	return memo(&d.codecs.enc, func() encodeFunc { return buildEncoder(d) })
}

func buildEncoder(d *Descriptor) encodeFunc {
	var enc encodeFunc
	switch d.kind {
	case KindPrimitive:
		enc = primitiveEncoder(d.primID())
	case KindStruct:
		enc = structEncoder(d)
	case KindArray:
		enc = arrayEncoder(d)
	case KindUnion:
		// a nil value may still select a literal member
		return unionEncoder(d)
	case KindLiteral:
		return func(_ *buffer, ptr int, _ any) (int, error) { return ptr, nil }
	}
	// null has no representation outside a bitmap slot
	return func(w *buffer, ptr int, v any) (int, error) {
		if v == nil {
			return ptr, ErrNullValue
		}
		return enc(w, ptr, v)
	}
}

type fieldWriter struct {
	name     string
	enc      encodeFunc
	size     int
	nullable bool
	dynamic  bool
	slot     int // offset table index, -1 for the first dynamic field
	nullByte int
	nullBit  uint
}

func structEncoder(d *Descriptor) encodeFunc {
	writers := make([]fieldWriter, len(d.fields))
	var dynamics, nulls int
	for i, f := range d.fields {
		fw := fieldWriter{
			name:     f.Name,
			enc:      encoderFor(f.Type),
			size:     int(max(f.Type.size, 0)),
			nullable: f.Type.nullable,
			dynamic:  f.Type.size < 0,
		}
		if fw.dynamic {
			fw.slot = dynamics - 1
			dynamics++
		}
		if fw.nullable {
			fw.nullByte = int(d.dynamicTableLen) + nulls>>3
			fw.nullBit = uint(nulls & 7)
			nulls++
		}
		writers[i] = fw
	}
	head := int(d.dynamicTableLen + d.nullBitmapLen)

	return func(w *buffer, ptr int, v any) (int, error) {
		r, ok := asRecord(v)
		if !ok {
			return ptr, invalid(v, "map[string]any")
		}
		start := ptr
		w.reserve(ptr, head)
		ptr += head
		base := ptr
		for i := range writers {
			f := &writers[i]
			if f.dynamic {
				if f.slot < 0 {
					base = ptr
				} else {
					w.putUint32(start+f.slot*4, uint32(ptr-base))
				}
			}
			fv, _, err := r.lookup(f.name)
			if err != nil {
				return ptr, withPath(err, f.name)
			}
			if fv == nil {
				if !f.nullable {
					return ptr, withPath(ErrMissingField, f.name)
				}
				w.setBit(start+f.nullByte, f.nullBit)
				w.reserve(ptr, f.size)
				ptr += f.size
				continue
			}
			if ptr, err = f.enc(w, ptr, fv); err != nil {
				return ptr, withPath(err, f.name)
			}
		}
		return ptr, nil
	}
}

func arrayEncoder(d *Descriptor) encodeFunc {
	el := d.element
	enc := encoderFor(el)
	dynamic := el.size < 0
	size := int(max(el.size, 0))
	fast := el.fastNumeric()
	align := alignment(el)

	return func(w *buffer, ptr int, v any) (int, error) {
		s, ok := asSequence(v)
		if !ok {
			return ptr, invalid(v, "slice")
		}
		n := s.Len()
		if uint64(n) > 1<<32-1 {
			return ptr, overflow(n, "u32 array length")
		}
		w.reserve(ptr, 4)
		w.putUint32(ptr, uint32(n))
		ptr += 4

		offsets := ptr
		if dynamic {
			w.reserve(ptr, 4*n)
			ptr += 4 * n
		}
		nulls := ptr
		if el.nullable {
			w.reserve(ptr, (n+7)/8)
			ptr += (n + 7) / 8
		} else if fast {
			ptr = Roundup(ptr, align)
			w.reserve(ptr, 0)
			if end, ok, err := bulkEncode(w, ptr, el.id, v); ok {
				return end, err
			}
		}

		data := ptr
		for i := range n {
			if dynamic {
				w.putUint32(offsets+4*i, uint32(ptr-data))
			}
			ev, err := s.At(i)
			if err != nil {
				return ptr, withPath(err, indexSeg(i))
			}
			if ev == nil {
				if !el.nullable {
					return ptr, withPath(ErrNullValue, indexSeg(i))
				}
				w.setBit(nulls+i>>3, uint(i))
				w.reserve(ptr, size)
				ptr += size
				continue
			}
			if ptr, err = enc(w, ptr, ev); err != nil {
				return ptr, withPath(err, indexSeg(i))
			}
		}
		return ptr, nil
	}
}

func unionEncoder(d *Descriptor) encodeFunc {
	encs := make([]encodeFunc, len(d.members))
	for i, m := range d.members {
		encs[i] = encoderFor(m)
	}
	return func(w *buffer, ptr int, v any) (int, error) {
		pick, best := -1, 0.0
		for i, m := range d.members {
			// strictly greater keeps the earliest member on ties
			if s := Weight(m, v); s > best {
				pick, best = i, s
			}
		}
		if pick < 0 {
			return ptr, fmt.Errorf("%w: %T for %s", ErrNoUnionMatch, v, d)
		}
		w.reserve(ptr, 1)
		w.b[ptr] = byte(pick)
		return encs[pick](w, ptr+1, v)
	}
}
