package imaging

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"

	// WebP is input-only: the ecosystem has no maintained pure-Go encoder.
	_ "golang.org/x/image/webp"
)

// RasterFormats enumerates the raster output formats for generated
// images. SVG and BASE64 are handled separately by the QR endpoint.
var RasterFormats = []string{"PNG", "JPG", "JPEG", "GIF", "BMP"}

// EncodeRaster writes img to w in the given format (one of RasterFormats,
// case-insensitive).
func EncodeRaster(w io.Writer, img image.Image, format string) error {
	switch strings.ToUpper(format) {
	case "PNG":
		return png.Encode(w, img)
	case "JPG", "JPEG":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case "GIF":
		return gif.Encode(w, img, nil)
	case "BMP":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("unsupported raster format %q", format)
	}
}

// DecodeImage reads any registered format (PNG, JPEG, GIF, BMP, WebP) and
// returns the image plus the detected format name.
func DecodeImage(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}

// MIMEType returns the Content-Type for a generated image format.
func MIMEType(format string) string {
	switch strings.ToUpper(format) {
	case "SVG":
		return "image/svg+xml"
	case "JPG", "JPEG":
		return "image/jpeg"
	default:
		return "image/" + strings.ToLower(format)
	}
}
