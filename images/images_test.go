package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/nvr-ai/go-synap/types"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestFit(t *testing.T) {
	tests := []struct {
		name           string
		srcW, srcH     int
		dstW, dstH     int
		want           types.Rect
		wantScale      float64
	}{
		{"wide into wide", 1280, 720, 640, 384, types.NewRect(0, 12, 640, 360), 0.5},
		{"tall into wide", 480, 640, 640, 384, types.NewRect(176, 0, 288, 384), 0.6},
		{"same size", 640, 384, 640, 384, types.NewRect(0, 0, 640, 384), 1},
		{"upscale", 100, 100, 300, 200, types.NewRect(50, 0, 200, 200), 2},
		{"rounding", 3, 3, 10, 10, types.NewRect(0, 0, 10, 10), 10.0 / 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Fit(tt.srcW, tt.srcH, tt.dstW, tt.dstH)
			assert.Equal(t, tt.want, p.Rect)
			assert.InDelta(t, tt.wantScale, p.Scale, 1e-12)
			assert.Equal(t, types.Dim2d{X: tt.srcW, Y: tt.srcH}, p.Source)
			assert.False(t, p.Empty())
		})
	}
}

func TestLetterboxPadsWithFill(t *testing.T) {
	src := solid(40, 20, color.NRGBA{200, 100, 50, 255})
	canvas, p := Letterbox(src, 20, 20, color.Black, BilinearFilter)

	require.Equal(t, image.Rect(0, 0, 20, 20), canvas.Bounds())
	assert.Equal(t, types.NewRect(0, 5, 20, 10), p.Rect)

	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, canvas.NRGBAAt(10, 2), "padding")
	assert.Equal(t, color.NRGBA{200, 100, 50, 255}, canvas.NRGBAAt(10, 10), "content")
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, canvas.NRGBAAt(10, 17), "padding")
}

func TestLetterboxFilters(t *testing.T) {
	src := solid(8, 4, color.NRGBA{10, 20, 30, 255})
	for _, f := range []ResampleFilter{NearestNeighborFilter, BilinearFilter, BicubicFilter, MitchellNetravaliFilter, LanczosFilter} {
		canvas, p := Letterbox(src, 4, 4, color.White, f)
		assert.Equal(t, types.NewRect(0, 1, 4, 2), p.Rect)
		assert.Equal(t, color.NRGBA{10, 20, 30, 255}, canvas.NRGBAAt(2, 1))
	}
	assert.Equal(t, LanczosFilter, ParseResampleFilter("lanczos"))
	assert.Equal(t, BilinearFilter, ParseResampleFilter("whatever"))
}

func TestStdDecoder(t *testing.T) {
	src := solid(6, 4, color.NRGBA{1, 2, 3, 255})

	var pngBuf, jpgBuf, bmpBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, src))
	require.NoError(t, jpeg.Encode(&jpgBuf, src, &jpeg.Options{Quality: 95}))
	require.NoError(t, bmp.Encode(&bmpBuf, src))

	for name, data := range map[string][]byte{"png": pngBuf.Bytes(), "jpeg": jpgBuf.Bytes(), "bmp": bmpBuf.Bytes()} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, ImageFormat(name), DetectFormat(data))
			img, err := StdDecoder{}.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 6, 4), img.Bounds())
		})
	}

	_, err := StdDecoder{}.Decode(nil)
	assert.True(t, errors.Is(err, ErrEmptyImage))
	_, err = StdDecoder{}.Decode([]byte("garbage"))
	assert.True(t, errors.Is(err, ErrDecode))
}

func TestFromPixels(t *testing.T) {
	hwc := []byte{1, 2, 3, 4, 5, 6}
	img, err := FromPixels(hwc, 2, 1, 3, false)
	require.NoError(t, err)
	nrgba := img.(*image.NRGBA)
	assert.Equal(t, color.NRGBA{4, 5, 6, 255}, nrgba.NRGBAAt(1, 0))

	chw := []byte{1, 4, 2, 5, 3, 6}
	img, err = FromPixels(chw, 2, 1, 3, true)
	require.NoError(t, err)
	assert.Equal(t, nrgba.Pix, img.(*image.NRGBA).Pix)

	img, err = FromPixels([]byte{7, 8}, 2, 1, 1, false)
	require.NoError(t, err)
	assert.Equal(t, uint8(8), img.(*image.Gray).GrayAt(1, 0).Y)

	_, err = FromPixels(hwc, 2, 2, 3, false)
	assert.True(t, errors.Is(err, ErrInvalidPixels))
	_, err = FromPixels(hwc, 3, 1, 2, false)
	assert.True(t, errors.Is(err, ErrInvalidPixels))
}
