// Package cv - OpenCV backed image decoding.
package cv

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-synap/images"
)

// Decoder decodes images with OpenCV. It reads every format the linked OpenCV build
// supports, including TIFF and JPEG 2000.
type Decoder struct {
	// Flags are passed to IMDecode. The zero value selects gocv.IMReadColor.
	Flags gocv.IMReadFlag
}

var _ images.Decoder = Decoder{}

// Decode implements images.Decoder.
func (d Decoder) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, images.ErrEmptyImage
	}
	flags := d.Flags
	if flags == 0 {
		flags = gocv.IMReadColor
	}
	mat, err := gocv.IMDecode(data, flags)
	if err != nil {
		return nil, errors.Wrapf(images.ErrDecode, "opencv: %v", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.Wrap(images.ErrDecode, "opencv: empty result")
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, errors.Wrapf(images.ErrDecode, "opencv: %v", err)
	}
	return img, nil
}
