// Package preprocess - Writes images into input tensors: decoding, letterbox resize,
// channel reordering, normalization and quantization.
package preprocess

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-synap/images"
	"github.com/nvr-ai/go-synap/tensor"
	"github.com/nvr-ai/go-synap/types"
)

// Preprocessor converts InputData into input tensor contents.
type Preprocessor struct {
	decoder images.Decoder
	fill    uint8
	filter  images.ResampleFilter
	log     logrus.FieldLogger
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithDecoder sets the decoder for encoded images.
func WithDecoder(d images.Decoder) Option { return func(p *Preprocessor) { p.decoder = d } }

// WithFill sets the gray level used for letterbox padding.
func WithFill(v uint8) Option { return func(p *Preprocessor) { p.fill = v } }

// WithFilter sets the resampling filter.
func WithFilter(f images.ResampleFilter) Option { return func(p *Preprocessor) { p.filter = f } }

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option { return func(p *Preprocessor) { p.log = l } }

// New creates a preprocessor. Defaults: images.StdDecoder, black padding, bilinear
// resampling and the standard logrus logger.
func New(opts ...Option) *Preprocessor {
	p := &Preprocessor{
		decoder: images.StdDecoder{},
		filter:  images.BilinearFilter,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AssignFile loads the image at path and assigns it to inputs[index].
func (p *Preprocessor) AssignFile(inputs *tensor.Tensors, path string, index int) (types.Placement, error) {
	in, err := NewInputData(path)
	if err != nil {
		return types.Placement{}, err
	}
	return p.Assign(inputs, in, index)
}

// Assign writes an image into inputs[index].
//
// The image is scaled by min(W/srcW, H/srcH) to fit the tensor's pixel grid without
// distortion, centered, and the rest of the grid is padded with the fill level.
//
// Arguments:
//   - inputs: The network input tensors.
//   - in: The image.
//   - index: Position of the target tensor in inputs.
//
// Returns:
//   - types.Placement: Where the resized image sits inside the tensor grid.
//   - error: ErrEmptyInputs, ErrInvalidInput, ErrDecode, ErrUnsupportedLayout or
//     tensor.ErrOutOfRange.
func (p *Preprocessor) Assign(inputs *tensor.Tensors, in *InputData, index int) (types.Placement, error) {
	if inputs.Len() == 0 {
		return types.Placement{}, ErrEmptyInputs
	}
	if in.Empty() {
		return types.Placement{}, errors.Wrap(ErrInvalidInput, "no data")
	}
	t, err := inputs.At(index)
	if err != nil {
		return types.Placement{}, err
	}
	g, err := imageGeometry(t.Shape(), t.Layout())
	if err != nil {
		return types.Placement{}, errors.WithMessage(err, t.Name())
	}

	img, err := in.image(p.decoder)
	if err != nil {
		return types.Placement{}, err
	}
	fill := color.NRGBA{p.fill, p.fill, p.fill, 255}
	canvas, placement := images.Letterbox(img, g.width, g.height, fill, p.filter)

	if err := t.Update(func(raw []byte) error {
		p.write(t, g, canvas, raw)
		return nil
	}); err != nil {
		return types.Placement{}, err
	}

	p.log.WithFields(logrus.Fields{
		"source":    in.Source(),
		"tensor":    t.Name(),
		"placement": placement.String(),
	}).Debug("input assigned")
	return placement, nil
}

func (p *Preprocessor) write(t *tensor.Tensor, g geometry, canvas *image.NRGBA, raw []byte) {
	order := channelOrder(t.DataFormat(), g.channels)
	norm := t.Normalization()
	direct := norm == nil && t.Quantization() == nil &&
		(t.DataType() == types.Uint8 || t.DataType() == types.Byte)

	put := func(i, c int, sample uint8) {
		if direct {
			raw[i] = sample
			return
		}
		v := float32(sample)
		if norm != nil {
			v = norm.Apply(v, c)
		}
		t.EncodeAt(raw, i, v)
	}

	for y := 0; y < g.height; y++ {
		row := canvas.Pix[y*canvas.Stride : y*canvas.Stride+4*g.width]
		for x := 0; x < g.width; x++ {
			px := row[4*x : 4*x+4]
			if order == nil {
				gray := color.GrayModel.Convert(color.NRGBA{px[0], px[1], px[2], px[3]}).(color.Gray)
				put(g.index(x, y, 0), 0, gray.Y)
				continue
			}
			for c, src := range order {
				put(g.index(x, y, c), c, px[src])
			}
		}
	}
}
