package pest

import (
	"fmt"
	"iter"
)

// decodeFunc reads the value stored at ptr.
type decodeFunc func(s *segment, ptr int) (any, error)

// View decodes b lazily. Primitives are returned as Go values; structs as
// *StructView and arrays as *ArrayView, both reading from b on access. Arrays
// of non-nullable fixed-width numbers come back as typed slices ([]float32,
// []int64, ...) that alias b when alignment and host byte order permit.
//
// b must not be modified while the view is in use.
func View(b []byte, d *Descriptor) (any, error) {
	return ViewWith(b, d, Options{})
}

// ViewWith is View with explicit options.
func ViewWith(b []byte, d *Descriptor, opts Options) (any, error) {
	if err := checkHeader(b, d); err != nil {
		return nil, err
	}
	return viewerFor(d)(&segment{b: b, unsafeStrings: opts.UnsafeStrings}, headerSize)
}

func viewerFor(d *Descriptor) decodeFunc {
	return memo(&d.codecs.view, func() decodeFunc { return buildDecoder(d, true) })
}

// buildDecoder builds the lazy (view) or eager decoder of d. Both walk the same
// offsets; they differ only in what they return for structs and arrays.
func buildDecoder(d *Descriptor, view bool) decodeFunc {
	sub := materializerFor
	if view {
		sub = viewerFor
	}
	switch d.kind {
	case KindPrimitive:
		return primitiveDecoder(d.primID(), view)
	case KindLiteral:
		lit := d.literal
		return func(*segment, int) (any, error) { return lit, nil }
	case KindUnion:
		decs := make([]decodeFunc, len(d.members))
		for i, m := range d.members {
			decs[i] = sub(m)
		}
		return func(s *segment, ptr int) (any, error) {
			tag, err := s.u8(ptr)
			if err != nil {
				return nil, err
			}
			if int(tag) >= len(decs) {
				return nil, corrupt("union tag %d of %d members", tag, len(decs))
			}
			return decs[tag](s, ptr+1)
		}
	case KindStruct:
		acc := newAccessorSet(d, sub)
		if view {
			return func(s *segment, ptr int) (any, error) {
				return &StructView{acc: acc, seg: s, base: ptr}, nil
			}
		}
		return acc.materialize
	case KindArray:
		acc := newArrayAccess(d.element, sub)
		return func(s *segment, ptr int) (any, error) {
			n, err := s.u32(ptr)
			if err != nil {
				return nil, err
			}
			if acc.fast {
				// typed slices are not facades; the eager form still gets its own copy
				return typedSlice(s.b, Roundup(ptr+4, acc.size), int(n), acc.elem.id, view)
			}
			a := &ArrayView{acc: acc, seg: s, length: int(n), data: ptr + 4}
			if err := a.check(); err != nil {
				return nil, err
			}
			if view {
				return a, nil
			}
			return a.materialize()
		}
	}
	panic(fmt.Sprintf("pest: no decoder for kind %s", d.kind))
}

// accessor locates one struct field relative to the struct's base offset.
type accessor struct {
	name     string
	nullable bool
	nullByte int
	nullMask byte
	pos      int
	slot     int // offset table entry, -1 if the field is fixed or the first dynamic one
	dec      decodeFunc
}

func (a *accessor) read(s *segment, base int) (any, error) {
	if a.nullable {
		b, err := s.u8(base + a.nullByte)
		if err != nil {
			return nil, err
		}
		if b&a.nullMask != 0 {
			return nil, nil
		}
	}
	at := base + a.pos
	if a.slot >= 0 {
		off, err := s.u32(base + a.slot*4)
		if err != nil {
			return nil, err
		}
		at += int(off)
	}
	return a.dec(s, at)
}

// accessorSet is built once per struct descriptor and shared by every
// StructView of it.
type accessorSet struct {
	desc   *Descriptor
	fields []accessor // declaration order
	index  map[string]int
}

func newAccessorSet(d *Descriptor, sub func(*Descriptor) decodeFunc) *accessorSet {
	byName := make(map[string]accessor, len(d.fields))
	pos := int(d.dynamicTableLen + d.nullBitmapLen)
	var dynamics, nulls int
	for _, f := range d.fields {
		a := accessor{name: f.Name, nullable: f.Type.nullable, pos: pos, slot: -1, dec: sub(f.Type)}
		if a.nullable {
			a.nullByte = int(d.dynamicTableLen) + nulls>>3
			a.nullMask = 1 << (nulls & 7)
			nulls++
		}
		if f.Type.size < 0 {
			a.slot = dynamics - 1
			dynamics++
		} else {
			pos += int(f.Type.size)
		}
		byName[f.Name] = a
	}
	set := &accessorSet{desc: d, fields: make([]accessor, len(d.declared)), index: make(map[string]int, len(d.declared))}
	for i, f := range d.declared {
		set.fields[i] = byName[f.Name]
		set.index[f.Name] = i
	}
	return set
}

func (set *accessorSet) materialize(s *segment, base int) (any, error) {
	m := make(map[string]any, len(set.fields))
	for i := range set.fields {
		a := &set.fields[i]
		v, err := a.read(s, base)
		if err != nil {
			return nil, withPath(err, a.name)
		}
		m[a.name] = v
	}
	return m, nil
}

// StructView reads struct fields from the encoded buffer on demand.
type StructView struct {
	acc  *accessorSet
	seg  *segment
	base int
}

// Type returns the struct descriptor of the view.
func (v *StructView) Type() *Descriptor { return v.acc.desc }

// Get decodes the named field. Null fields return nil; nested structs and
// arrays return further views.
func (v *StructView) Get(name string) (any, error) {
	i, ok := v.acc.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownField, name, v.acc.desc)
	}
	val, err := v.acc.fields[i].read(v.seg, v.base)
	if err != nil {
		return nil, withPath(err, name)
	}
	return val, nil
}

// Has reports whether the struct declares name.
func (v *StructView) Has(name string) bool {
	_, ok := v.acc.index[name]
	return ok
}

// Names returns the field names in declaration order.
func (v *StructView) Names() []string {
	names := make([]string, len(v.acc.fields))
	for i := range v.acc.fields {
		names[i] = v.acc.fields[i].name
	}
	return names
}

// Len returns the number of fields.
func (v *StructView) Len() int { return len(v.acc.fields) }

// ToMap reads every field into a map. Nested values stay views; use Detach
// for a deep copy.
func (v *StructView) ToMap() (map[string]any, error) {
	m := make(map[string]any, len(v.acc.fields))
	for i := range v.acc.fields {
		a := &v.acc.fields[i]
		val, err := a.read(v.seg, v.base)
		if err != nil {
			return nil, withPath(err, a.name)
		}
		m[a.name] = val
	}
	return m, nil
}

func (v *StructView) lookup(name string) (any, bool, error) {
	if !v.Has(name) {
		return nil, false, nil
	}
	val, err := v.Get(name)
	return val, true, err
}

func (v *StructView) numKeys() int { return v.Len() }

// maxZeroWidthElems bounds the length of arrays whose elements occupy no
// bytes, since the buffer size cannot.
const maxZeroWidthElems = DefaultMaxFrame

// arrayAccess is the per-element-type part of an ArrayView.
type arrayAccess struct {
	elem     *Descriptor
	dec      decodeFunc
	dynamic  bool
	nullable bool
	fast     bool
	size     int
}

func newArrayAccess(elem *Descriptor, sub func(*Descriptor) decodeFunc) *arrayAccess {
	acc := &arrayAccess{
		elem:     elem,
		dynamic:  elem.size < 0,
		nullable: elem.nullable,
		fast:     elem.fastNumeric(),
		size:     int(max(elem.size, 0)),
	}
	if !acc.fast {
		acc.dec = sub(elem)
	}
	return acc
}

// ArrayView is a read-only sequence decoding elements from the encoded buffer
// on demand. It has no mutating methods.
type ArrayView struct {
	acc    *arrayAccess
	seg    *segment
	length int
	data   int
}

// check verifies the offset table, bitmap and fixed-width data lie inside the buffer.
func (a *ArrayView) check() error {
	need := int64(a.length) * int64(a.acc.size)
	if a.acc.dynamic {
		need = 4 * int64(a.length)
	}
	if a.acc.nullable {
		need += int64(a.length+7) / 8
	}
	if need == 0 && a.length > maxZeroWidthElems {
		return corrupt("%d zero-width elements exceed the limit of %d", a.length, maxZeroWidthElems)
	}
	if avail := int64(len(a.seg.b) - a.data); need > avail {
		return corrupt("array of %d elements needs %d bytes, %d left", a.length, need, avail)
	}
	return nil
}

// Elem returns the element descriptor.
func (a *ArrayView) Elem() *Descriptor { return a.acc.elem }

// Len returns the number of elements.
func (a *ArrayView) Len() int { return a.length }

// At decodes element i.
func (a *ArrayView) At(i int) (any, error) {
	if i < 0 || i >= a.length {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, a.length)
	}
	v, err := a.at(i)
	if err != nil {
		return nil, withPath(err, indexSeg(i))
	}
	return v, nil
}

func (a *ArrayView) at(i int) (any, error) {
	acc := a.acc
	at := a.data
	if acc.nullable {
		bitmap := a.data
		if acc.dynamic {
			bitmap += a.length * 4
		}
		null, err := a.seg.bit(bitmap, i)
		if err != nil {
			return nil, err
		}
		if null {
			return nil, nil
		}
		at += (a.length + 7) / 8
	}
	if acc.dynamic {
		off, err := a.seg.u32(a.data + 4*i)
		if err != nil {
			return nil, err
		}
		at += a.length*4 + int(off)
	} else {
		at += i * acc.size
	}
	return acc.dec(a.seg, at)
}

// All iterates over the elements in order, stopping after the first error.
func (a *ArrayView) All() iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for i := range a.length {
			v, err := a.At(i)
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// Contains reports whether some element equals v. Numbers compare by value.
func (a *ArrayView) Contains(v any) (bool, error) {
	for e, err := range a.All() {
		if err != nil {
			return false, err
		}
		if literalEqual(e, v) {
			return true, nil
		}
	}
	return false, nil
}

// ToSlice reads every element. Nested values stay views; use Detach for a deep copy.
func (a *ArrayView) ToSlice() ([]any, error) {
	out := make([]any, a.length)
	for i := range a.length {
		v, err := a.At(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (a *ArrayView) materialize() (any, error) {
	s, err := a.ToSlice()
	if err != nil {
		return nil, err
	}
	return s, nil
}
