package pest

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
)

// Kind classifies a Descriptor.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindStruct
	KindArray
	KindUnion
	KindLiteral
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindStruct:
		return "struct"
	case KindArray:
		return "array"
	case KindUnion:
		return "union"
	case KindLiteral:
		return "literal"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Primitive type ids. Ids below IDBool are the fixed-width numeric primitives
// eligible for the typed array fast path.
const (
	IDInt8 int32 = iota
	IDInt16
	IDInt32
	IDInt64
	IDUint8
	IDUint16
	IDUint32
	IDUint64
	IDFloat32
	IDFloat64
	IDBool
	IDDate
	IDString
	IDRegExp
)

// MaxUnionMembers bounds a union so its tag fits in one byte.
const MaxUnionMembers = 256

// Primitive descriptors.
var (
	Int8    = primitive(IDInt8, 1, "i8")
	Int16   = primitive(IDInt16, 2, "i16")
	Int32   = primitive(IDInt32, 4, "i32")
	Int64   = primitive(IDInt64, 8, "i64")
	Uint8   = primitive(IDUint8, 1, "u8")
	Uint16  = primitive(IDUint16, 2, "u16")
	Uint32  = primitive(IDUint32, 4, "u32")
	Uint64  = primitive(IDUint64, 8, "u64")
	Float32 = primitive(IDFloat32, 4, "f32")
	Float64 = primitive(IDFloat64, 8, "f64")
	Bool    = primitive(IDBool, 1, "bool")
	Date    = primitive(IDDate, 8, "date")
	String  = primitive(IDString, -1, "string")
	RegExp  = primitive(IDRegExp, -1, "regexp")
)

// Field is a named struct member.
type Field struct {
	Name string
	Type *Descriptor
}

// F is shorthand for Field{name, t}.
func F(name string, t *Descriptor) Field { return Field{Name: name, Type: t} }

// Descriptor is an immutable structural type node. Descriptors are built once,
// by the primitive constants or the Struct, Array, Nullable, Union, Literal and
// Enum combinators, and may be shared freely between goroutines.
type Descriptor struct {
	id              int32
	kind            Kind
	name            string
	size            int64
	nullable        bool
	dynamicTableLen uint32
	nullBitmapLen   uint32
	fields          []Field // layout order
	declared        []Field // declaration order
	members         []*Descriptor
	element         *Descriptor
	literal         any

	codecs codecCache
}

// codecCache holds the lazily built codecs of a descriptor. Each slot goes
// from nil to its final value exactly once.
type codecCache struct {
	enc  atomic.Pointer[encodeFunc]
	view atomic.Pointer[decodeFunc]
	mat  atomic.Pointer[decodeFunc]
}

// memo returns the function installed in slot, building and installing it first
// if the slot is still empty. Concurrent builders race to install; the losers
// use the winner's copy.
func memo[T any](slot *atomic.Pointer[T], build func() T) T {
	if p := slot.Load(); p != nil {
		return *p
	}
	f := build()
	slot.CompareAndSwap(nil, &f)
	return *slot.Load()
}

func primitive(id int32, size int64, name string) *Descriptor {
	return &Descriptor{id: id, kind: KindPrimitive, name: name, size: size}
}

// Struct builds a struct descriptor. Field order is significant for the type id.
// It panics on empty or duplicate field names and nil field types.
func Struct(fields ...Field) *Descriptor {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			panic("pest: struct field with empty name")
		}
		if f.Type == nil {
			panic(fmt.Sprintf("pest: struct field %q has nil type", f.Name))
		}
		if _, dup := seen[f.Name]; dup {
			panic(fmt.Sprintf("pest: duplicate struct field %q", f.Name))
		}
		seen[f.Name] = struct{}{}
	}

	declared := slices.Clone(fields)
	sorted := slices.Clone(fields)
	// descending size puts every dynamic (-1) field after the fixed ones
	slices.SortStableFunc(sorted, func(a, b Field) int { return cmp.Compare(b.Type.size, a.Type.size) })

	var dynamics, nulls uint32
	var size int64
	for _, f := range sorted {
		if f.Type.size < 0 {
			dynamics++
		} else {
			size += f.Type.size
		}
		if f.Type.nullable {
			nulls++
		}
	}

	d := &Descriptor{
		id:            structID(declared),
		kind:          KindStruct,
		fields:        sorted,
		declared:      declared,
		nullBitmapLen: (nulls + 7) / 8,
	}
	if dynamics > 0 {
		d.dynamicTableLen = (dynamics - 1) * 4
		d.size = -1
	} else {
		d.size = size + int64(d.nullBitmapLen)
	}
	return d
}

// Array builds a descriptor for a sequence of elem.
func Array(elem *Descriptor) *Descriptor { return ArrayN(elem, 1) }

// ArrayN builds depth nested array layers around elem: ArrayN(T, 2) is Array(Array(T)).
func ArrayN(elem *Descriptor, depth int) *Descriptor {
	if elem == nil {
		panic("pest: array of nil type")
	}
	if depth < 1 {
		panic(fmt.Sprintf("pest: array depth %d < 1", depth))
	}
	d := elem
	for range depth {
		d = &Descriptor{id: arrayID(d.id), kind: KindArray, size: -1, element: d}
	}
	return d
}

// Nullable returns a copy of inner that also admits null. Nullable of a nullable
// descriptor returns it unchanged.
func Nullable(inner *Descriptor) *Descriptor {
	if inner == nil {
		panic("pest: nullable of nil type")
	}
	if inner.nullable {
		return inner
	}
	return &Descriptor{
		id:              ^inner.id,
		kind:            inner.kind,
		name:            inner.name,
		size:            inner.size,
		nullable:        true,
		dynamicTableLen: inner.dynamicTableLen,
		nullBitmapLen:   inner.nullBitmapLen,
		fields:          inner.fields,
		declared:        inner.declared,
		members:         inner.members,
		element:         inner.element,
		literal:         inner.literal,
	}
}

// Union builds a tagged union. The member order is the tag order; ties in
// member selection go to the earliest member.
func Union(members ...*Descriptor) *Descriptor {
	if len(members) == 0 || len(members) > MaxUnionMembers {
		panic(fmt.Sprintf("pest: union needs 1..%d members, got %d", MaxUnionMembers, len(members)))
	}
	for i, m := range members {
		if m == nil {
			panic(fmt.Sprintf("pest: union member %d is nil", i))
		}
	}
	d := &Descriptor{
		id:      unionID(members),
		kind:    KindUnion,
		members: slices.Clone(members),
		size:    -1,
	}
	common := members[0].size
	uniform := common >= 0
	for _, m := range members[1:] {
		if m.size != common {
			uniform = false
			break
		}
	}
	if uniform {
		d.size = 1 + common
	}
	return d
}

// Literal builds a zero-width descriptor for a single value. Literals carry no
// payload; they are selected by a union tag. It panics if v cannot be rendered
// as JSON.
func Literal(v any) *Descriptor {
	id, err := literalID(v)
	if err != nil {
		panic(fmt.Sprintf("pest: literal %v: %v", v, err))
	}
	return &Descriptor{id: id, kind: KindLiteral, literal: v}
}

// Enum builds a union of literals; it occupies one tag byte on the wire.
func Enum(values ...any) *Descriptor {
	members := make([]*Descriptor, len(values))
	for i, v := range values {
		members[i] = Literal(v)
	}
	return Union(members...)
}

func (d *Descriptor) ID() int32      { return d.id }
func (d *Descriptor) Kind() Kind     { return d.kind }
func (d *Descriptor) Nullable() bool { return d.nullable }

// Size returns the fixed encoded width in bytes, or -1 if the type is dynamically sized.
func (d *Descriptor) Size() int64 { return d.size }

// DynamicTableLen returns the bytes reserved for a struct's dynamic offset table.
func (d *Descriptor) DynamicTableLen() uint32 { return d.dynamicTableLen }

// NullBitmapLen returns the bytes reserved for a struct's null bitmap.
func (d *Descriptor) NullBitmapLen() uint32 { return d.nullBitmapLen }

// Fields returns struct fields in layout order: fixed fields by descending size,
// then dynamic fields.
func (d *Descriptor) Fields() []Field { return slices.Clone(d.fields) }

// DeclaredFields returns struct fields in declaration order.
func (d *Descriptor) DeclaredFields() []Field { return slices.Clone(d.declared) }

// Members returns union members in tag order.
func (d *Descriptor) Members() []*Descriptor { return slices.Clone(d.members) }

// Element returns the element type of an array, or nil.
func (d *Descriptor) Element() *Descriptor { return d.element }

// Literal returns the value of a literal descriptor.
func (d *Descriptor) Literal() any { return d.literal }

// Depth returns the number of directly nested array layers, 0 for non-arrays.
func (d *Descriptor) Depth() uint32 {
	var n uint32
	for t := d; t.kind == KindArray; t = t.element {
		n++
	}
	return n
}

// Root returns the innermost non-array element, or d itself for non-arrays.
func (d *Descriptor) Root() *Descriptor {
	t := d
	for t.kind == KindArray {
		t = t.element
	}
	return t
}

// primID is the primitive id of d with any nullable wrapping removed.
func (d *Descriptor) primID() int32 {
	if d.nullable {
		return ^d.id
	}
	return d.id
}

// fastNumeric reports whether d is a non-nullable fixed-width numeric primitive.
func (d *Descriptor) fastNumeric() bool {
	return d.kind == KindPrimitive && !d.nullable && d.id >= IDInt8 && d.id < IDBool
}

func (d *Descriptor) String() string {
	var b strings.Builder
	d.format(&b)
	return b.String()
}

func (d *Descriptor) format(b *strings.Builder) {
	switch d.kind {
	case KindPrimitive:
		b.WriteString(d.name)
	case KindStruct:
		b.WriteString("struct{")
		for i, f := range d.declared {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteByte(' ')
			f.Type.format(b)
		}
		b.WriteByte('}')
	case KindArray:
		b.WriteString("[]")
		d.element.format(b)
	case KindUnion:
		b.WriteByte('(')
		for i, m := range d.members {
			if i > 0 {
				b.WriteString(" | ")
			}
			m.format(b)
		}
		b.WriteByte(')')
	case KindLiteral:
		text, _ := jsonText(d.literal)
		b.WriteString(text)
	}
	if d.nullable {
		b.WriteByte('?')
	}
}
