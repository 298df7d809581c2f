package imaging

import (
	"bytes"
	"fmt"

	svg "github.com/ajstarks/svgo"
	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"
)

// BarcodeTypes enumerates the accepted barcode_type values.
var BarcodeTypes = []string{"code39", "ean13", "ean8", "upca", "code128"}

const (
	barModuleWidth = 2   // SVG units per module
	barHeight      = 100 // bar height in SVG units
	barQuietZone   = 10  // horizontal margin either side
)

func encodeBarcode(data, barcodeType string) (barcode.Barcode, error) {
	switch barcodeType {
	case "code39":
		return code39.Encode(data, false, true)
	case "code128":
		return code128.Encode(data)
	case "ean13":
		if n := len(data); n != 12 && n != 13 {
			return nil, fmt.Errorf("ean13 requires 12 or 13 digits, got %d", n)
		}
		return ean.Encode(data)
	case "ean8":
		if n := len(data); n != 7 && n != 8 {
			return nil, fmt.Errorf("ean8 requires 7 or 8 digits, got %d", n)
		}
		return ean.Encode(data)
	case "upca":
		// UPC-A is EAN-13 with a leading zero number system digit.
		if n := len(data); n != 11 && n != 12 {
			return nil, fmt.Errorf("upca requires 11 or 12 digits, got %d", n)
		}
		return ean.Encode("0" + data)
	default:
		return nil, fmt.Errorf("unsupported barcode type %q", barcodeType)
	}
}

// BarcodeSVG encodes data as a one-dimensional barcode and renders it as
// an SVG document, one rect per run of dark modules.
func BarcodeSVG(data, barcodeType string) ([]byte, error) {
	bc, err := encodeBarcode(data, barcodeType)
	if err != nil {
		return nil, fmt.Errorf("encode barcode: %w", err)
	}

	bounds := bc.Bounds()
	modules := bounds.Dx()
	width := modules*barModuleWidth + 2*barQuietZone
	height := barHeight + 2*barQuietZone

	dark := func(x int) bool {
		r, g, b, _ := bc.At(bounds.Min.X+x, bounds.Min.Y).RGBA()
		return r == 0 && g == 0 && b == 0
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:white")
	x := 0
	for x < modules {
		if !dark(x) {
			x++
			continue
		}
		run := x
		for run < modules && dark(run) {
			run++
		}
		canvas.Rect(
			barQuietZone+x*barModuleWidth,
			barQuietZone,
			(run-x)*barModuleWidth,
			barHeight,
			"fill:black")
		x = run
	}
	canvas.End()
	return buf.Bytes(), nil
}
