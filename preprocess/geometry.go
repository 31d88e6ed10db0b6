package preprocess

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-synap/types"
)

// geometry is the pixel grid of an image tensor.
type geometry struct {
	width    int
	height   int
	channels int
	// planar is true for NCHW tensors.
	planar bool
}

func (g geometry) index(x, y, c int) int {
	if g.planar {
		return c*g.width*g.height + y*g.width + x
	}
	return (y*g.width+x)*g.channels + c
}

// imageGeometry reads a rank 4 image shape. Only a batch of one image is supported.
func imageGeometry(shape types.Shape, layout types.Layout) (geometry, error) {
	dims := shape.Dims()
	if len(dims) != 4 {
		return geometry{}, errors.Wrapf(ErrUnsupportedLayout, "%s is not an image shape", shape)
	}
	if dims[0] != 1 {
		return geometry{}, errors.Wrapf(ErrUnsupportedLayout, "batch of %d", dims[0])
	}
	var g geometry
	switch layout {
	case types.LayoutNHWC:
		g = geometry{height: dims[1], width: dims[2], channels: dims[3]}
	case types.LayoutNCHW:
		g = geometry{channels: dims[1], height: dims[2], width: dims[3], planar: true}
	default:
		return geometry{}, errors.Wrapf(ErrUnsupportedLayout, "layout %s", layout)
	}
	switch g.channels {
	case 1, 3, 4:
	default:
		return geometry{}, errors.Wrapf(ErrUnsupportedLayout, "%d channels", g.channels)
	}
	if g.width <= 0 || g.height <= 0 {
		return geometry{}, errors.Wrapf(ErrUnsupportedLayout, "%s", shape)
	}
	return g, nil
}

// channelOrder maps tensor channels to RGBA sample offsets according to the tensor's
// data format: "bgr" swaps red and blue, anything else is RGB. One channel is gray.
func channelOrder(dataFormat string, channels int) []int {
	if channels == 1 {
		return nil
	}
	bgr := false
	if f := strings.Fields(strings.ToLower(dataFormat)); len(f) > 0 {
		bgr = strings.HasPrefix(f[0], "bgr")
	}
	order := []int{0, 1, 2, 3}[:channels]
	if bgr {
		order[0], order[2] = 2, 0
	}
	return order
}
