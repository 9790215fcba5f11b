package pest

import "encoding/binary"

const defaultBufferSize = 256

// buffer is the output of a single encode call. Its length is its capacity:
// bytes are addressed by absolute offset and every region is reserved before
// it is written. Growth preserves contents, so offsets stay valid.
type buffer struct {
	b []byte
}

func newBuffer(size int) *buffer {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &buffer{b: make([]byte, size)}
}

// reset reuses b as the backing store, zeroing it first.
func (w *buffer) reset(b []byte) {
	b = b[:cap(b)]
	clear(b)
	w.b = b
}

// reserve makes [ptr, ptr+n) addressable, doubling the buffer as needed.
func (w *buffer) reserve(ptr, n int) {
	need := ptr + n
	if need <= len(w.b) {
		return
	}
	size := max(len(w.b), defaultBufferSize)
	for size < need {
		size *= 2
	}
	grown := make([]byte, size)
	copy(grown, w.b)
	w.b = grown
}

func (w *buffer) putUint32(at int, v uint32) { binary.LittleEndian.PutUint32(w.b[at:], v) }

func (w *buffer) setBit(at int, bit uint) { w.b[at] |= 1 << (bit & 7) }
