// Package images - Image sources for preprocessing: decoding, raw pixel buffers and
// letterbox resizing.
package images

import "bytes"

// ImageFormat represents supported encoded image formats.
type ImageFormat string

const (
	// FormatUnknown is reported for data that matches no known signature.
	FormatUnknown ImageFormat = ""
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
	// FormatBMP is the BMP image format.
	FormatBMP ImageFormat = "bmp"
	// FormatGIF is the GIF image format.
	FormatGIF ImageFormat = "gif"
)

// DetectFormat identifies an encoded image by its leading bytes.
func DetectFormat(data []byte) ImageFormat {
	switch {
	case bytes.HasPrefix(data, []byte{0xff, 0xd8, 0xff}):
		return FormatJPEG
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatWebP
	case bytes.HasPrefix(data, []byte("BM")):
		return FormatBMP
	case bytes.HasPrefix(data, []byte("GIF8")):
		return FormatGIF
	}
	return FormatUnknown
}
