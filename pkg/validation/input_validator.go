package validation

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "go-sem-scalebar/internal/errors"
	"go-sem-scalebar/internal/storage"
)

// MaxLabelLength bounds user supplied label text, in runes.
const MaxLabelLength = 32

// MaxImagePixels rejects images too large to render in one request.
const MaxImagePixels = storage.MaxImagePixels

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ValidateUpload checks an uploaded file's name and size
func ValidateUpload(filename string, size, maxSize int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return apperrors.NewValidationError(fmt.Sprintf("unsupported file type %q, expected .jpg, .jpeg or .png", ext), nil)
	}
	if size <= 0 {
		return apperrors.NewValidationError("uploaded file is empty", nil)
	}
	if maxSize > 0 && size > maxSize {
		return apperrors.NewValidationError(fmt.Sprintf("uploaded file exceeds %d bytes", maxSize), nil)
	}
	return nil
}

// ValidateLabel checks free-form label text entered by the user
func ValidateLabel(label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return apperrors.NewValidationError("label cannot be empty", nil)
	}
	if n := utf8.RuneCountInString(label); n > MaxLabelLength {
		return apperrors.NewValidationError(fmt.Sprintf("label is %d characters, limit is %d", n, MaxLabelLength), nil)
	}
	for _, r := range label {
		if !unicode.IsPrint(r) {
			return apperrors.NewValidationError("label contains non-printable characters", nil)
		}
	}
	return nil
}

// ValidateMagnification requires a non-empty label. Unknown labels are not an
// error: they produce an unchanged image.
func ValidateMagnification(label string) error {
	if strings.TrimSpace(label) == "" {
		return apperrors.NewValidationError("magnification is required", nil)
	}
	return nil
}

// ValidateDimensions rejects empty and oversized images
func ValidateDimensions(bounds image.Rectangle) error {
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return apperrors.NewValidationError("image has no pixels", nil)
	}
	if int64(w)*int64(h) > MaxImagePixels {
		return apperrors.NewValidationError(fmt.Sprintf("image is %dx%d, limit is %d pixels", w, h, MaxImagePixels), nil)
	}
	return nil
}
