package images

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"github.com/nvr-ai/go-synap/types"
)

// ResampleFilter defines the resampling algorithm used for image scaling.
type ResampleFilter int

const (
	// BilinearFilter uses bilinear interpolation. It is the default.
	BilinearFilter ResampleFilter = iota
	// NearestNeighborFilter uses nearest-neighbor interpolation (fastest, lowest quality).
	NearestNeighborFilter
	// BicubicFilter uses bicubic interpolation.
	BicubicFilter
	// MitchellNetravaliFilter uses the Mitchell-Netravali cubic filter.
	MitchellNetravaliFilter
	// LanczosFilter uses Lanczos resampling with a=3 (slowest, best quality).
	LanczosFilter
)

// ParseResampleFilter maps a configuration name to a filter. Unknown names select bilinear.
func ParseResampleFilter(name string) ResampleFilter {
	switch name {
	case "nearest":
		return NearestNeighborFilter
	case "bicubic":
		return BicubicFilter
	case "mitchell":
		return MitchellNetravaliFilter
	case "lanczos":
		return LanczosFilter
	default:
		return BilinearFilter
	}
}

func (f ResampleFilter) interpolation() resize.InterpolationFunction {
	switch f {
	case NearestNeighborFilter:
		return resize.NearestNeighbor
	case BicubicFilter:
		return resize.Bicubic
	case MitchellNetravaliFilter:
		return resize.MitchellNetravali
	case LanczosFilter:
		return resize.Lanczos3
	default:
		return resize.Bilinear
	}
}

// Fit computes the aspect-preserving placement of a srcW x srcH image inside a
// dstW x dstH grid. The scale is min(dstW/srcW, dstH/srcH), the content size is the
// rounded scaled source size and the content is centered.
func Fit(srcW, srcH, dstW, dstH int) types.Placement {
	scale := math.Min(float64(dstW)/float64(srcW), float64(dstH)/float64(srcH))
	w := min(dstW, max(1, int(math.Round(float64(srcW)*scale))))
	h := min(dstH, max(1, int(math.Round(float64(srcH)*scale))))
	return types.Placement{
		Rect:   types.NewRect((dstW-w)/2, (dstH-h)/2, w, h),
		Scale:  scale,
		Source: types.Dim2d{X: srcW, Y: srcH},
	}
}

// Letterbox resizes img to fit a width x height canvas without distortion and pads the
// remaining area with fill.
//
// Arguments:
//   - img: The source image.
//   - width: Canvas width.
//   - height: Canvas height.
//   - fill: Padding color.
//   - filter: Resampling filter.
//
// Returns:
//   - *image.NRGBA: The canvas.
//   - types.Placement: Where the resized content sits on the canvas.
func Letterbox(img image.Image, width, height int, fill color.Color, filter ResampleFilter) (*image.NRGBA, types.Placement) {
	b := img.Bounds()
	p := Fit(b.Dx(), b.Dy(), width, height)

	content := img
	if p.Size.X != b.Dx() || p.Size.Y != b.Dy() {
		content = resize.Resize(uint(p.Size.X), uint(p.Size.Y), img, filter.interpolation())
	}
	canvas := imaging.New(width, height, fill)
	canvas = imaging.Paste(canvas, content, image.Pt(p.Origin.X, p.Origin.Y))
	return canvas, p
}
