package tensor

import (
	"iter"
	"slices"

	"github.com/pkg/errors"
)

// Tensors is a fixed-length, order-preserving collection of tensors.
type Tensors struct {
	items []*Tensor
}

// NewTensors wraps the given tensors. The slice is copied.
func NewTensors(items ...*Tensor) *Tensors {
	return &Tensors{items: slices.Clone(items)}
}

// Len returns the number of tensors. A nil collection is empty.
func (ts *Tensors) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.items)
}

// At returns the tensor at index i.
func (ts *Tensors) At(i int) (*Tensor, error) {
	if i < 0 || i >= ts.Len() {
		return nil, errors.Wrapf(ErrOutOfRange, "index %d with %d tensors", i, ts.Len())
	}
	return ts.items[i], nil
}

// All iterates over the tensors in order. The sequence can be restarted.
func (ts *Tensors) All() iter.Seq2[int, *Tensor] {
	return func(yield func(int, *Tensor) bool) {
		for i := range ts.Len() {
			if !yield(i, ts.items[i]) {
				return
			}
		}
	}
}

// Slice returns a copy of the underlying handles.
func (ts *Tensors) Slice() []*Tensor {
	if ts == nil {
		return nil
	}
	return slices.Clone(ts.items)
}

// Release drops every handle in the collection.
func (ts *Tensors) Release() {
	for _, t := range ts.All() {
		t.Release()
	}
}
