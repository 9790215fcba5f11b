package pest

import (
	"encoding/binary"
	"fmt"
)

const (
	headerSize = 8
	arrayFlag  = 0x80000000
	idMask     = 0x7fffffff
)

// Header is the 8-byte prefix of every message. For arrays ID is the id of the
// innermost element type and Depth the nesting level; otherwise ID is the
// absolute type id and Depth is zero.
type Header struct {
	Array bool
	ID    uint32
	Depth uint32
}

// HeaderOf returns the header Encode writes for d.
func HeaderOf(d *Descriptor) Header {
	if d.kind == KindArray {
		return Header{Array: true, ID: uint32(d.Root().id) & idMask, Depth: d.Depth()}
	}
	id := int64(d.id)
	if id < 0 {
		id = -id
	}
	return Header{ID: uint32(id) & idMask}
}

// ReadHeader parses the header at the start of b.
func ReadHeader(b []byte) (Header, error) {
	if len(b) < headerSize {
		return Header{}, corrupt("message of %d bytes is shorter than its header", len(b))
	}
	word := binary.LittleEndian.Uint32(b)
	if word&arrayFlag == 0 {
		return Header{ID: word}, nil
	}
	return Header{Array: true, ID: word & idMask, Depth: binary.LittleEndian.Uint32(b[4:])}, nil
}

func (h Header) put(b []byte) {
	word := h.ID
	if h.Array {
		word |= arrayFlag
		binary.LittleEndian.PutUint32(b[4:], h.Depth)
	}
	binary.LittleEndian.PutUint32(b, word)
}

func (h Header) String() string {
	if h.Array {
		return fmt.Sprintf("array(%#x, depth %d)", h.ID, h.Depth)
	}
	return fmt.Sprintf("%#x", h.ID)
}

func checkHeader(b []byte, d *Descriptor) error {
	h, err := ReadHeader(b)
	if err != nil {
		return err
	}
	want := HeaderOf(d)
	switch {
	case h.Array != want.Array:
		return fmt.Errorf("%w: header %s, type %s", ErrNotArray, h, d)
	case h.ID != want.ID:
		return fmt.Errorf("%w: header %s, type %s is %s", ErrTypeMismatch, h, d, want)
	case h.Depth != want.Depth:
		return fmt.Errorf("%w: header depth %d, type %s has %d", ErrDepthMismatch, h.Depth, d, want.Depth)
	}
	return nil
}
