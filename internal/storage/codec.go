package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"path"
	"strings"
)

// ErrUnsupportedFormat is returned for images that are neither JPEG nor PNG.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ErrNotFound is returned when a remote source reports the image does not exist.
var ErrNotFound = errors.New("image source not found")

// ErrImageTooLarge is returned when a body or the declared pixel count exceeds a limit.
var ErrImageTooLarge = errors.New("image too large")

// MaxImagePixels bounds the declared width times height of a decoded image.
const MaxImagePixels = 100_000_000

// EditedSuffix is appended to the base name of downloaded images.
const EditedSuffix = "_edited"

// SourceImage is a decoded image together with where it came from.
type SourceImage struct {
	Image  image.Image
	Format string // "jpeg" or "png"
	Name   string // base file name, may be empty
}

// DecodeImage decodes JPEG or PNG data read from r. The header is checked
// against MaxImagePixels before any pixel buffer is allocated.
func DecodeImage(r io.Reader, name string) (*SourceImage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(err)
	}
	if format != "jpeg" && format != "png" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, MaxImagePixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(err)
	}
	return &SourceImage{Image: img, Format: format, Name: baseName(name)}, nil
}

// ReadLimited reads r to the end, failing once more than maxBytes arrive.
// maxBytes <= 0 disables the limit.
func ReadLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrImageTooLarge, maxBytes)
	}
	return data, nil
}

func decodeError(err error) error {
	if errors.Is(err, image.ErrFormat) {
		return ErrUnsupportedFormat
	}
	return fmt.Errorf("failed to decode image: %w", err)
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// EditedFilename turns "sample.jpg" into "sample_edited.png".
func EditedFilename(name string) string {
	base := baseName(name)
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" {
		base = "image"
	}
	return base + EditedSuffix + ".png"
}

// baseName strips directories from both slash styles and any URL query.
func baseName(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
