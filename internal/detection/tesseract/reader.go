// Package tesseract reads the printed scale label with the Tesseract OCR engine.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"

	"go-sem-scalebar/internal/detection"

	"github.com/otiai10/gosseract/v2"
)

// Reader implements detection.TextReader. A new Tesseract client is created
// for every call since clients are not safe for concurrent use.
type Reader struct {
	Language string
}

// NewReader creates a reader for the given Tesseract language code
func NewReader(language string) *Reader {
	if language == "" {
		language = "eng"
	}
	return &Reader{Language: language}
}

// ReadText crops the label region of img and returns the single line of text
// Tesseract finds there, trimmed.
func (r *Reader) ReadText(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	region := detection.LabelRegion(img.Bounds())
	if region.Empty() {
		return "", nil
	}

	data, err := encodeGrayRegion(img, region)
	if err != nil {
		return "", fmt.Errorf("failed to encode label region: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.Language); err != nil {
		return "", fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// encodeGrayRegion crops region out of img as 8-bit grayscale PNG.
func encodeGrayRegion(img image.Image, region image.Rectangle) ([]byte, error) {
	gray := image.NewGray(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(gray, gray.Bounds(), img, region.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
