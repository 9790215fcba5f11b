package pest

import (
	"fmt"
	"iter"

	"github.com/puzpuzpuz/xsync/v4"
)

// Registry resolves self-describing messages to descriptors by their header.
// It is safe for concurrent use.
type Registry struct {
	types *xsync.Map[Header, *Descriptor]
}

func NewRegistry() *Registry {
	return &Registry{types: xsync.NewMap[Header, *Descriptor]()}
}

// Register adds descriptors under the header Encode writes for them.
// Registering an equivalent descriptor twice is a no-op; a different one
// claiming an occupied header fails with ErrDuplicateType.
func (r *Registry) Register(ds ...*Descriptor) error {
	for _, d := range ds {
		h := HeaderOf(d)
		actual, loaded := r.types.LoadOrStore(h, d)
		if loaded && actual != d && actual.String() != d.String() {
			return fmt.Errorf("%w: %s holds %s, not %s", ErrDuplicateType, h, actual, d)
		}
	}
	return nil
}

// Lookup returns the descriptor registered for the header of b.
func (r *Registry) Lookup(b []byte) (*Descriptor, error) {
	h, err := ReadHeader(b)
	if err != nil {
		return nil, err
	}
	d, ok := r.types.Load(h)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, h)
	}
	return d, nil
}

// View looks up the type of b and views it.
func (r *Registry) View(b []byte) (any, *Descriptor, error) {
	d, err := r.Lookup(b)
	if err != nil {
		return nil, nil, err
	}
	v, err := View(b, d)
	return v, d, err
}

// Materialize looks up the type of b and materializes it.
func (r *Registry) Materialize(b []byte) (any, *Descriptor, error) {
	d, err := r.Lookup(b)
	if err != nil {
		return nil, nil, err
	}
	v, err := Materialize(b, d)
	return v, d, err
}

// Len returns the number of registered headers.
func (r *Registry) Len() int { return r.types.Size() }

// All iterates over the registered descriptors in no particular order.
func (r *Registry) All() iter.Seq2[Header, *Descriptor] {
	return func(yield func(Header, *Descriptor) bool) {
		r.types.Range(yield)
	}
}
