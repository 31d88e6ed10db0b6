package preprocess

import (
	"image"
	"os"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-synap/images"
	"github.com/nvr-ai/go-synap/types"
)

// InputType tells how the bytes of an InputData are interpreted.
type InputType int

const (
	// InputEncodedImage is a JPEG, PNG or other encoded image file.
	InputEncodedImage InputType = iota
	// InputImage8Bits is a raw 8-bit pixel buffer with an explicit shape and layout.
	InputImage8Bits
)

// InputData is one image handed to the preprocessor.
type InputData struct {
	kind   InputType
	data   []byte
	shape  types.Shape
	layout types.Layout
	source string
}

// NewInputData reads an encoded image file.
func NewInputData(path string) (*InputData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidInput, "%s: %v", path, err)
	}
	if len(data) == 0 {
		return nil, errors.Wrapf(ErrInvalidInput, "%s: empty file", path)
	}
	return &InputData{kind: InputEncodedImage, data: data, source: path}, nil
}

// NewInputDataFromBytes wraps an in-memory encoded image. The slice is not copied.
func NewInputDataFromBytes(blob []byte) *InputData {
	return &InputData{kind: InputEncodedImage, data: blob, source: "memory"}
}

// NewRawInputData wraps raw 8-bit pixels.
//
// Arguments:
//   - pixels: The samples. The slice is not copied.
//   - shape: Rank 3, or rank 4 with a batch of 1.
//   - layout: LayoutNHWC for interleaved pixels, LayoutNCHW for planar ones.
//
// Returns:
//   - *InputData: The wrapped image.
//   - error: ErrInvalidInput when shape, layout and pixel count disagree.
func NewRawInputData(pixels []byte, shape types.Shape, layout types.Layout) (*InputData, error) {
	if _, err := rawGeometry(shape, layout); err != nil {
		return nil, err
	}
	if len(pixels) != shape.ItemCount() {
		return nil, errors.Wrapf(ErrInvalidInput, "%s needs %d bytes, got %d", shape, shape.ItemCount(), len(pixels))
	}
	return &InputData{kind: InputImage8Bits, data: pixels, shape: shape, layout: layout, source: "raw " + shape.String()}, nil
}

// Empty reports whether there is no data.
func (d *InputData) Empty() bool { return d == nil || len(d.data) == 0 }

// Type returns how the data is interpreted.
func (d *InputData) Type() InputType { return d.kind }

// Data returns the wrapped bytes.
func (d *InputData) Data() []byte { return d.data }

// Size returns the data size in bytes.
func (d *InputData) Size() int { return len(d.data) }

// Source names where the data came from, for logs and errors.
func (d *InputData) Source() string { return d.source }

func (d *InputData) image(dec images.Decoder) (image.Image, error) {
	if d.kind == InputImage8Bits {
		g, err := rawGeometry(d.shape, d.layout)
		if err != nil {
			return nil, err
		}
		img, err := images.FromPixels(d.data, g.width, g.height, g.channels, g.planar)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidInput, err.Error())
		}
		return img, nil
	}
	img, err := dec.Decode(d.data)
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "%s: %v", d.source, err)
	}
	return img, nil
}

func rawGeometry(shape types.Shape, layout types.Layout) (geometry, error) {
	dims := shape.Dims()
	if len(dims) == 3 {
		dims = append([]int{1}, dims...)
	}
	g, err := imageGeometry(types.NewShape(dims...), layout)
	if err != nil {
		return g, errors.Wrap(ErrInvalidInput, err.Error())
	}
	return g, nil
}
