package pest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTypeMismatch indicates that the type id in a message header does not match
	// the descriptor the caller asked to decode with.
	ErrTypeMismatch = errors.New("pest: type mismatch")

	// ErrDepthMismatch indicates that an array header carries a nesting depth different
	// from the descriptor's.
	ErrDepthMismatch = errors.New("pest: array depth mismatch")

	// ErrNotArray indicates that an array header was decoded with a non-array descriptor,
	// or a non-array header with an array descriptor.
	ErrNotArray = errors.New("pest: array header and descriptor disagree")

	// ErrNoUnionMatch indicates that no union member scored above zero for the encoded value.
	ErrNoUnionMatch = errors.New("pest: value matches no union member")

	// ErrCorrupt indicates that a length, offset or tag read from the buffer points
	// outside of it or outside the descriptor's domain.
	ErrCorrupt = errors.New("pest: corrupt input")

	// ErrMissingField indicates that a required struct field was absent or nil.
	ErrMissingField = errors.New("pest: required field missing")

	// ErrNullValue indicates a nil value where the descriptor is not nullable.
	ErrNullValue = errors.New("pest: null value for non-nullable type")

	// ErrInvalidValue indicates that a Go value has the wrong kind for its descriptor.
	ErrInvalidValue = errors.New("pest: invalid value for type")

	// ErrOverflow indicates that a number cannot be represented by the target primitive.
	ErrOverflow = errors.New("pest: value overflows type")

	// ErrUnknownField indicates a view lookup of a name the struct does not declare.
	ErrUnknownField = errors.New("pest: unknown field")

	// ErrIndexOutOfRange indicates an array view access outside [0, Len()).
	ErrIndexOutOfRange = errors.New("pest: index out of range")

	// ErrDuplicateType indicates that a registry already holds a different descriptor
	// under the same header key.
	ErrDuplicateType = errors.New("pest: different type already registered for header")

	// ErrUnknownType indicates that a registry has no descriptor for a message header.
	ErrUnknownType = errors.New("pest: no type registered for header")

	// ErrFrameTooLarge indicates a stream frame whose declared length exceeds the reader limit.
	ErrFrameTooLarge = errors.New("pest: frame exceeds maximum size")

	// ErrNilIO indicates that NewReader/NewWriter was called with a nil io.Reader/io.Writer.
	ErrNilIO = errors.New("pest: NewReader/NewWriter called with a nil io.Reader/io.Writer")
)

// FieldError attaches the path of the struct field or array element at which
// encoding or decoding failed.
type FieldError struct {
	Path []string
	Err  error
}

func (e *FieldError) Error() string {
	msg := strings.TrimPrefix(e.Err.Error(), "pest: ")
	return fmt.Sprintf("pest: %s (at %s)", msg, strings.Join(e.Path, "."))
}

func (e *FieldError) Unwrap() error { return e.Err }

// withPath prefixes seg onto the path of err, creating a FieldError if needed.
func withPath(err error, seg string) error {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*FieldError); ok {
		fe.Path = append([]string{seg}, fe.Path...)
		return fe
	}
	return &FieldError{Path: []string{seg}, Err: err}
}

func indexSeg(i int) string { return fmt.Sprintf("[%d]", i) }

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrCorrupt}, args...)...)
}
