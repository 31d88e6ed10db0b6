package types

import (
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Shape is an ordered, immutable sequence of dimension counts.
//
// The first dimension is the batch dimension for model tensors.
type Shape struct {
	dims []int
}

// NewShape creates a shape from the given dimensions. The slice is copied.
func NewShape(dims ...int) Shape {
	return Shape{dims: slices.Clone(dims)}
}

// Len returns the rank of the shape.
func (s Shape) Len() int { return len(s.dims) }

// At returns the dimension at index i.
//
// Arguments:
//   - i: The dimension index.
//
// Returns:
//   - int: The dimension count.
//   - error: ErrOutOfRange when i is negative or >= Len().
func (s Shape) At(i int) (int, error) {
	if i < 0 || i >= len(s.dims) {
		return 0, errors.Wrapf(ErrOutOfRange, "shape index %d with rank %d", i, len(s.dims))
	}
	return s.dims[i], nil
}

// Dims returns a copy of the dimensions.
func (s Shape) Dims() []int { return slices.Clone(s.dims) }

// ItemCount returns the product of all dimensions, batch included.
// An empty shape has zero items.
func (s Shape) ItemCount() int {
	if len(s.dims) == 0 {
		return 0
	}
	n := 1
	for _, d := range s.dims {
		n *= d
	}
	return n
}

// Valid reports whether the shape is non-empty and every dimension is positive.
func (s Shape) Valid() bool {
	if len(s.dims) == 0 {
		return false
	}
	for _, d := range s.dims {
		if d <= 0 {
			return false
		}
	}
	return true
}

// Equal compares dimensions.
func (s Shape) Equal(o Shape) bool { return slices.Equal(s.dims, o.dims) }

// String implements fmt.Stringer.
func (s Shape) String() string {
	parts := make([]string, len(s.dims))
	for i, d := range s.dims {
		parts[i] = strconv.Itoa(d)
	}
	return "Shape(" + strings.Join(parts, ", ") + ")"
}
