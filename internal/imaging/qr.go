// Package imaging wraps the image-generation collaborators: QR codes,
// one-dimensional barcodes, raster encoding, and dominant-colour
// extraction. Handlers validate parameters before calling in; everything
// here assumes domains have already been checked and treats remaining
// failures as internal errors.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/colornames"
)

// QROptions are the validated parameters for one QR code rendering.
type QROptions struct {
	Data            string
	Size            int    // pixels (or SVG units) per module
	Border          int    // quiet-zone width in modules
	Version         int    // 0 selects the smallest version that fits
	ErrorCorrection string // L, M, Q or H
	FillColor       string // HTML colour name or #hex
	BackColor       string // HTML colour name or #hex
}

// ErrorCorrectionLevels enumerates the accepted error_correction values.
var ErrorCorrectionLevels = []string{"L", "M", "Q", "H"}

func recoveryLevel(s string) qrcode.RecoveryLevel {
	switch s {
	case "M":
		return qrcode.Medium
	case "Q":
		return qrcode.High
	case "H":
		return qrcode.Highest
	default:
		return qrcode.Low
	}
}

// ParseColor resolves an HTML colour name or a #rgb/#rrggbb hex string.
func ParseColor(s string) (color.RGBA, error) {
	if s == "" {
		return color.RGBA{}, fmt.Errorf("empty colour")
	}
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return color.RGBA{}, fmt.Errorf("invalid hex colour %q", s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex colour %q", s)
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}
	return color.RGBA{}, fmt.Errorf("unknown colour %q", s)
}

// qrBitmap returns the module matrix without any quiet zone; the caller
// draws its own border so the border parameter is honored exactly.
func qrBitmap(o QROptions) ([][]bool, error) {
	var (
		q   *qrcode.QRCode
		err error
	)
	level := recoveryLevel(o.ErrorCorrection)
	if o.Version > 0 {
		q, err = qrcode.NewWithForcedVersion(o.Data, o.Version, level)
	} else {
		q, err = qrcode.New(o.Data, level)
	}
	if err != nil {
		return nil, fmt.Errorf("encode qr data: %w", err)
	}
	q.DisableBorder = true
	return q.Bitmap(), nil
}

// QRImage renders the QR code as a raster image, Size pixels per module
// with a Border-module quiet zone in the background colour.
func QRImage(o QROptions) (image.Image, error) {
	bitmap, err := qrBitmap(o)
	if err != nil {
		return nil, err
	}
	fill, err := ParseColor(o.FillColor)
	if err != nil {
		return nil, err
	}
	back, err := ParseColor(o.BackColor)
	if err != nil {
		return nil, err
	}

	modules := len(bitmap)
	total := (modules + 2*o.Border) * o.Size

	img := image.NewRGBA(image.Rect(0, 0, total, total))
	draw.Draw(img, img.Bounds(), image.NewUniform(back), image.Point{}, draw.Src)

	for y, row := range bitmap {
		for x, set := range row {
			if !set {
				continue
			}
			px := (x + o.Border) * o.Size
			py := (y + o.Border) * o.Size
			draw.Draw(img,
				image.Rect(px, py, px+o.Size, py+o.Size),
				image.NewUniform(fill), image.Point{}, draw.Src)
		}
	}
	return img, nil
}

// QRSVG renders the QR code as an SVG document, one rect per run of dark
// modules.
func QRSVG(o QROptions) ([]byte, error) {
	bitmap, err := qrBitmap(o)
	if err != nil {
		return nil, err
	}
	// Validate even though SVG embeds the raw strings.
	if _, err := ParseColor(o.FillColor); err != nil {
		return nil, err
	}
	if _, err := ParseColor(o.BackColor); err != nil {
		return nil, err
	}

	modules := len(bitmap)
	total := (modules + 2*o.Border) * o.Size

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(total, total)
	canvas.Rect(0, 0, total, total, "fill:"+o.BackColor)
	for y, row := range bitmap {
		x := 0
		for x < len(row) {
			if !row[x] {
				x++
				continue
			}
			run := x
			for run < len(row) && row[run] {
				run++
			}
			canvas.Rect(
				(x+o.Border)*o.Size,
				(y+o.Border)*o.Size,
				(run-x)*o.Size,
				o.Size,
				"fill:"+o.FillColor)
			x = run
		}
	}
	canvas.End()
	return buf.Bytes(), nil
}
