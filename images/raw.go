package images

import (
	"image"

	"github.com/pkg/errors"
)

// ErrInvalidPixels is returned when a raw pixel buffer does not match its geometry.
var ErrInvalidPixels = errors.New("invalid raw pixels")

// FromPixels wraps a raw 8-bit pixel buffer as an image.
//
// Arguments:
//   - pixels: Interleaved (HWC) or planar (CHW) samples.
//   - width: Image width in pixels.
//   - height: Image height in pixels.
//   - channels: 1 (gray), 3 (RGB) or 4 (RGBA).
//   - planar: True when the samples are stored one channel plane after another.
//
// Returns:
//   - image.Image: An *image.Gray for one channel, an *image.NRGBA otherwise.
//   - error: ErrInvalidPixels when the buffer size or channel count is wrong.
func FromPixels(pixels []byte, width, height, channels int, planar bool) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidPixels, "size %dx%d", width, height)
	}
	if channels != 1 && channels != 3 && channels != 4 {
		return nil, errors.Wrapf(ErrInvalidPixels, "%d channels", channels)
	}
	if want := width * height * channels; len(pixels) != want {
		return nil, errors.Wrapf(ErrInvalidPixels, "expected %d bytes, got %d", want, len(pixels))
	}

	if channels == 1 {
		g := image.NewGray(image.Rect(0, 0, width, height))
		copy(g.Pix, pixels)
		return g, nil
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	plane := width * height
	for i := 0; i < plane; i++ {
		px := img.Pix[4*i : 4*i+4]
		px[3] = 255
		for c := 0; c < channels; c++ {
			if planar {
				px[c] = pixels[c*plane+i]
			} else {
				px[c] = pixels[i*channels+c]
			}
		}
	}
	return img, nil
}
