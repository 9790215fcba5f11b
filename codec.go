package pest

import (
	"encoding"
	"fmt"
	"io"
)

// Sizer reports the encoded size of a value.
type Sizer interface {
	Size() int
}

// Marshaler encodes into a new slice, a caller buffer or a stream.
type Marshaler interface {
	encoding.BinaryMarshaler
	io.WriterTo

	// MarshalTo encodes into buf and returns io.ErrShortBuffer if it is too small.
	MarshalTo(buf []byte) (int, error)
}

// Unmarshaler decodes from a slice or a stream.
type Unmarshaler interface {
	encoding.BinaryUnmarshaler
	io.ReaderFrom
}

// Codec is a complete, self-sizing binary encoder/decoder.
type Codec interface {
	Sizer
	Marshaler
	Unmarshaler
}

// Message pairs a value with its descriptor so it can travel through APIs
// built on the encoding and io interfaces. Decoding replaces Value with its
// materialized form.
type Message struct {
	Type  *Descriptor
	Value any
}

var _ Codec = (*Message)(nil)

// encode runs fn on the encoded message held in a pooled buffer.
func (m *Message) encode(fn func(b []byte) error) error {
	if m.Type == nil {
		return fmt.Errorf("%w: message without type", ErrUnknownType)
	}
	w := getBuffer()
	defer putBuffer(w)
	n, err := encodeInto(w, m.Value, m.Type)
	if err != nil {
		return err
	}
	return fn(w.b[:n])
}

// Size returns the encoded length in bytes. It encodes the whole message to
// measure it, and returns 0 when the value cannot be encoded; call
// MarshalBinary to see the error.
func (m *Message) Size() int {
	var size int
	_ = m.encode(func(b []byte) error {
		size = len(b)
		return nil
	})
	return size
}

func (m *Message) MarshalBinary() ([]byte, error) {
	if m.Type == nil {
		return nil, fmt.Errorf("%w: message without type", ErrUnknownType)
	}
	return Encode(m.Value, m.Type)
}

func (m *Message) MarshalTo(buf []byte) (int, error) {
	var n int
	err := m.encode(func(b []byte) error {
		if len(buf) < len(b) {
			return io.ErrShortBuffer
		}
		n = copy(buf, b)
		return nil
	})
	return n, err
}

func (m *Message) WriteTo(w io.Writer) (int64, error) {
	var n int
	err := m.encode(func(b []byte) error {
		var err error
		n, err = w.Write(b)
		if err == nil && n < len(b) {
			err = io.ErrShortWrite
		}
		return err
	})
	return int64(n), err
}

// UnmarshalBinary materializes data as m.Type.
func (m *Message) UnmarshalBinary(data []byte) error {
	if m.Type == nil {
		return fmt.Errorf("%w: message without type", ErrUnknownType)
	}
	v, err := Materialize(data, m.Type)
	if err != nil {
		return err
	}
	m.Value = v
	return nil
}

// ReadFrom reads r to EOF and materializes the result as one message.
func (m *Message) ReadFrom(r io.Reader) (int64, error) {
	return ReadFromGeneric(m, r)
}
