package pest

import (
	"bufio"
	"encoding/binary"
	"io"
)

// frameAlign is the alignment of every frame in a stream, so that a frame read
// into a fresh allocation keeps the offsets its typed arrays were aligned to.
const frameAlign = 8

const frameHeaderSize = 8

// empty backs padding writes.
var empty [frameAlign]byte

// Writer writes a stream of framed messages. Each frame is the message length
// as u32, four reserved zero bytes, the message and zero padding up to a
// multiple of 8. It tracks the first I/O error; after one, writes are no-ops.
type Writer struct {
	w     *bufio.Writer
	count int64 // total bytes written
	err   error // first error encountered. Subsequent writes become no-ops.
}

// NewWriterSize creates a Writer with a buffer of at least size bytes.
// An existing *bufio.Writer that is large enough is used as is.
func NewWriterSize(w io.Writer, size int) (*Writer, error) {
	if w == nil {
		return nil, ErrNilIO
	}
	return &Writer{w: bufio.NewWriterSize(w, size)}, nil
}

// NewWriter creates a Writer with a default buffer size.
func NewWriter(w io.Writer) (*Writer, error) {
	return NewWriterSize(w, defaultStreamBuffer)
}

// WriteMessage encodes v as d and writes it as one frame. An encode error is
// returned without touching the stream or the error state.
func (w *Writer) WriteMessage(v any, d *Descriptor) error {
	if w.err != nil {
		return w.err
	}
	buf := getBuffer()
	defer putBuffer(buf)
	n, err := encodeInto(buf, v, d)
	if err != nil {
		return err
	}
	if uint64(n) > 1<<32-1 {
		return ErrFrameTooLarge
	}
	w.writeFrame(buf.b[:n])
	return w.err
}

// WriteFrame writes an already encoded message as one frame.
func (w *Writer) WriteFrame(msg []byte) error {
	if w.err != nil {
		return w.err
	}
	if uint64(len(msg)) > 1<<32-1 {
		return ErrFrameTooLarge
	}
	w.writeFrame(msg)
	return w.err
}

func (w *Writer) writeFrame(msg []byte) {
	var head [frameHeaderSize]byte
	binary.LittleEndian.PutUint32(head[:], uint32(len(msg)))
	w.write(head[:])
	w.write(msg)
	w.write(empty[:Roundup(len(msg), frameAlign)-len(msg)])
}

func (w *Writer) write(p []byte) {
	if w.err != nil || len(p) == 0 {
		return
	}
	n, err := w.w.Write(p)
	w.count += int64(n)
	w.setError(err)
}

// setError records the first non-nil error.
func (w *Writer) setError(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

func (w *Writer) Count() int64 { return w.count }
func (w *Writer) Err() error   { return w.err }

// Flush writes any buffered data to the underlying io.Writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.setError(w.w.Flush())
	return w.err
}

// Result flushes the buffer and returns the final count and error state.
func (w *Writer) Result() (int64, error) {
	w.Flush()
	return w.count, w.err
}
