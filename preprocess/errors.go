package preprocess

import "github.com/pkg/errors"

var (
	// ErrEmptyInputs is returned when the target tensor collection holds no tensors.
	ErrEmptyInputs = errors.New("no input tensors")
	// ErrInvalidInput is returned for missing or malformed input data.
	ErrInvalidInput = errors.New("invalid input data")
	// ErrDecode is returned when the input image cannot be decoded.
	ErrDecode = errors.New("unable to decode input image")
	// ErrUnsupportedLayout is returned when the target tensor geometry cannot hold an image.
	ErrUnsupportedLayout = errors.New("unsupported tensor layout")
)
