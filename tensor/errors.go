package tensor

import "github.com/pkg/errors"

var (
	// ErrSizeMismatch is returned when assigned data does not match the tensor byte size.
	ErrSizeMismatch = errors.New("size mismatch")
	// ErrShapeMismatch is returned when an assigned array has incompatible dimensions.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrOutOfRange is returned for an index outside a Tensors collection.
	ErrOutOfRange = errors.New("tensor index out of range")
	// ErrInvalidTensor is returned when a tensor description breaks the size invariant.
	ErrInvalidTensor = errors.New("invalid tensor")
	// ErrUnsupportedData is returned when Assign receives a value it cannot marshal.
	ErrUnsupportedData = errors.New("unsupported data")
)

func sizeMismatch(expected, got int) error {
	return errors.Wrapf(ErrSizeMismatch, "expected %d bytes, got %d bytes", expected, got)
}
