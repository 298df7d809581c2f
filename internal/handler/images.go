package handler

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zachlagden/zlapi/internal/imaging"
	"github.com/zachlagden/zlapi/internal/model"
)

const (
	maxQRDataLen       = 1000
	maxImageFetchBytes = 10 << 20 // dominant-colour source images
)

// qrFiletypes enumerates the accepted filetype values for /images/qr.
var qrFiletypes = []string{"PNG", "JPG", "JPEG", "GIF", "BMP", "SVG", "BASE64"}

// ImagesHandler serves the QR, barcode and dominant-colour endpoints.
type ImagesHandler struct {
	fetcher *http.Client
}

// NewImagesHandler builds an ImagesHandler. fetcher downloads remote
// images for colour extraction; nil selects a 15 second timeout client.
func NewImagesHandler(fetcher *http.Client) *ImagesHandler {
	if fetcher == nil {
		fetcher = &http.Client{Timeout: 15 * time.Second}
	}
	return &ImagesHandler{fetcher: fetcher}
}

// QR generates a QR code from the data parameter. Raster and SVG outputs
// stream image bytes; BASE64 wraps a PNG in the JSON envelope.
func (h *ImagesHandler) QR(w http.ResponseWriter, r *http.Request) {
	data := queryString(r, "data")
	if data == "" {
		writeValidationError(w, "The data parameter is required")
		return
	}
	if len(data) > maxQRDataLen {
		writeValidationError(w, "The data cannot be longer than 1000 characters")
		return
	}

	filetype := strings.ToUpper(queryString(r, "filetype"))
	if filetype == "" {
		filetype = "PNG"
	}
	if !inSet(filetype, qrFiletypes) {
		writeValidationError(w, enumMessage("filetype", qrFiletypes))
		return
	}

	errorCorrection := strings.ToUpper(queryString(r, "error_correction"))
	if errorCorrection == "" {
		errorCorrection = "L"
	}
	if !inSet(errorCorrection, imaging.ErrorCorrectionLevels) {
		writeValidationError(w, enumMessage("error_correction", imaging.ErrorCorrectionLevels))
		return
	}

	size, err := queryIntInRange(r, "size", 8, 1, 100)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	version, err := queryIntInRange(r, "version", 0, 1, 40)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	border, err := queryIntInRange(r, "border", 4, 1, 10)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	fillColor := queryString(r, "fill_color")
	if fillColor == "" {
		fillColor = "black"
	}
	if _, err := imaging.ParseColor(fillColor); err != nil {
		writeValidationErrorDetail(w, "The fill_color is not a valid color", err)
		return
	}
	backColor := queryString(r, "back_color")
	if backColor == "" {
		backColor = "white"
	}
	if _, err := imaging.ParseColor(backColor); err != nil {
		writeValidationErrorDetail(w, "The back_color is not a valid color", err)
		return
	}

	opts := imaging.QROptions{
		Data:            data,
		Size:            size,
		Border:          border,
		Version:         version,
		ErrorCorrection: errorCorrection,
		FillColor:       fillColor,
		BackColor:       backColor,
	}

	if filetype == "SVG" {
		out, err := imaging.QRSVG(opts)
		if err != nil {
			writeInternalError(w, "Failed to generate QR code", err)
			return
		}
		writeImage(w, imaging.MIMEType("SVG"), "qr_code.svg", out)
		return
	}

	encodeAs := filetype
	if filetype == "BASE64" {
		encodeAs = "PNG"
	}

	img, err := imaging.QRImage(opts)
	if err != nil {
		writeInternalError(w, "Failed to generate QR code", err)
		return
	}
	var buf bytes.Buffer
	if err := imaging.EncodeRaster(&buf, img, encodeAs); err != nil {
		writeInternalError(w, "Failed to generate QR code", err)
		return
	}

	if filetype == "BASE64" {
		writeEnvelope(w, http.StatusOK, model.Envelope{
			OK:      true,
			Status:  http.StatusOK,
			Message: "Successfully generated QR code",
			Base64:  base64.StdEncoding.EncodeToString(buf.Bytes()),
		})
		return
	}

	writeImage(w, imaging.MIMEType(encodeAs),
		"qr_code."+strings.ToLower(encodeAs), buf.Bytes())
}

// Barcode generates a one-dimensional barcode as SVG.
func (h *ImagesHandler) Barcode(w http.ResponseWriter, r *http.Request) {
	data := queryString(r, "data")
	if data == "" {
		writeValidationError(w, "The data parameter is required")
		return
	}

	barcodeType := strings.ToLower(queryString(r, "barcode_type"))
	if barcodeType == "" {
		barcodeType = "code128"
	}
	if !inSet(barcodeType, imaging.BarcodeTypes) {
		writeValidationError(w, enumMessage("barcode_type", imaging.BarcodeTypes))
		return
	}

	out, err := imaging.BarcodeSVG(data, barcodeType)
	if err != nil {
		writeInternalError(w, "Failed to generate barcode", err)
		return
	}
	writeImage(w, imaging.MIMEType("SVG"), "barcode.svg", out)
}

// DominantColors downloads a remote image and extracts its dominant
// colours.
func (h *ImagesHandler) DominantColors(w http.ResponseWriter, r *http.Request) {
	rawURL := queryString(r, "url")
	if rawURL == "" {
		writeValidationError(w, "The url parameter is required")
		return
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		if err == nil {
			err = fmt.Errorf("url must be absolute http or https")
		}
		writeValidationErrorDetail(w, "The supplied URL is not valid.", err)
		return
	}

	nColors, err := queryIntInRange(r, "n_colors", 3, 1, 10)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		writeValidationErrorDetail(w, "The supplied URL is not valid.", err)
		return
	}
	resp, err := h.fetcher.Do(req)
	if err != nil {
		writeValidationErrorDetail(w, "Failed to download the image.", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		writeValidationErrorDetail(w, "Failed to download the image.",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageFetchBytes+1))
	if err != nil {
		writeValidationErrorDetail(w, "Failed to download the image.", err)
		return
	}
	if len(body) > maxImageFetchBytes {
		writeValidationError(w, "The supplied image is too large")
		return
	}

	img, _, err := imaging.DecodeImage(bytes.NewReader(body))
	if err != nil {
		writeValidationErrorDetail(w, "The supplied URL is not a valid image.", err)
		return
	}

	hex, rgb, err := imaging.DominantColors(img, nColors)
	if err != nil {
		writeInternalError(w, "Failed to extract dominant colors", err)
		return
	}

	writeSuccess(w, "Successfully extracted dominant colors", model.DominantColors{
		HexColors: hex,
		RGBColors: rgb,
	})
}
