package images

import (
	"bytes"
	"image"

	// Registered with image.Decode so imaging can read them.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

var (
	// ErrEmptyImage is returned when there is nothing to decode.
	ErrEmptyImage = errors.New("empty image data")
	// ErrDecode is returned when encoded data cannot be turned into pixels.
	ErrDecode = errors.New("unable to decode image")
)

// Decoder turns encoded image bytes into pixels.
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(data []byte) (image.Image, error)

// Decode implements Decoder.
func (f DecoderFunc) Decode(data []byte) (image.Image, error) { return f(data) }

// StdDecoder decodes JPEG, PNG, GIF, BMP and WebP in pure Go and applies the EXIF
// orientation tag.
type StdDecoder struct{}

// Decode implements Decoder.
func (StdDecoder) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "%s: %v", formatName(DetectFormat(data)), err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.Wrap(ErrDecode, "image has no pixels")
	}
	return img, nil
}

func formatName(f ImageFormat) string {
	if f == FormatUnknown {
		return "unknown format"
	}
	return string(f)
}
