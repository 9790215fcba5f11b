package pest

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxFrame bounds the frame length a Reader accepts unless changed with WithMaxFrame.
const DefaultMaxFrame = 64 << 20

const defaultStreamBuffer = 4096

// Reader reads a stream of frames written by Writer. It tracks the first
// error, io.EOF at a frame boundary included; subsequent reads return it.
type Reader struct {
	r     *bufio.Reader
	count int64 // total bytes read
	err   error // first error encountered.
	max   int
}

// NewReaderSize creates a Reader with a buffer of at least size bytes.
func NewReaderSize(r io.Reader, size int) (*Reader, error) {
	if r == nil {
		return nil, ErrNilIO
	}
	return &Reader{r: bufio.NewReaderSize(r, size), max: DefaultMaxFrame}, nil
}

// NewReader creates a Reader with a default buffer size.
func NewReader(r io.Reader) (*Reader, error) {
	return NewReaderSize(r, defaultStreamBuffer)
}

// WithMaxFrame sets the largest message length accepted and returns the
// Reader for chaining.
func (r *Reader) WithMaxFrame(n int) *Reader {
	r.max = n
	return r
}

// ReadFrame returns the next message. The slice is freshly allocated and owned
// by the caller, so views over it stay valid.
func (r *Reader) ReadFrame() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	var head [frameHeaderSize]byte
	if !r.read(head[:], true) {
		return nil, r.err
	}
	n := int64(binary.LittleEndian.Uint32(head[:]))
	if n > int64(r.max) {
		r.setError(fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, r.max))
		return nil, r.err
	}
	msg := make([]byte, n)
	if !r.read(msg, false) {
		return nil, r.err
	}
	if pad := Roundup(n, frameAlign) - n; pad > 0 {
		var skip [frameAlign]byte
		if !r.read(skip[:pad], false) {
			return nil, r.err
		}
	}
	return msg, nil
}

// read fills p. EOF before the first byte of a frame is a clean end of stream;
// anywhere else it is io.ErrUnexpectedEOF.
func (r *Reader) read(p []byte, boundary bool) bool {
	n, err := io.ReadFull(r.r, p)
	r.count += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) && !boundary {
			err = io.ErrUnexpectedEOF
		}
		r.setError(err)
		return false
	}
	return true
}

// Next reads the next frame and materializes it as d.
func (r *Reader) Next(d *Descriptor) (any, error) {
	msg, err := r.ReadFrame()
	if err != nil {
		return nil, err
	}
	return Materialize(msg, d)
}

// NextView reads the next frame and views it as d.
func (r *Reader) NextView(d *Descriptor) (any, error) {
	msg, err := r.ReadFrame()
	if err != nil {
		return nil, err
	}
	return View(msg, d)
}

// NextAny reads the next frame and materializes it as whatever type reg has
// registered for its header.
func (r *Reader) NextAny(reg *Registry) (any, *Descriptor, error) {
	msg, err := r.ReadFrame()
	if err != nil {
		return nil, nil, err
	}
	return reg.Materialize(msg)
}

// setError records the first non-nil error.
func (r *Reader) setError(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

func (r *Reader) Count() int64 { return r.count }
func (r *Reader) Err() error   { return r.err }
