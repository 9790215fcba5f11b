package pest

import "golang.org/x/exp/constraints"

// Roundup rounds n up to the nearest multiple of align, which must be a power of two.
func Roundup[T constraints.Integer](n, align T) T { return (n + (align - 1)) &^ (align - 1) }

// alignment is the wire alignment of a numeric array's data region.
func alignment(d *Descriptor) int {
	if !d.fastNumeric() {
		return 1
	}
	return int(d.size)
}
