// Package detection finds an existing scale bar and its label on a micrograph.
//
// The heavy lifting is done by engines behind BarDetector and TextReader
// (see the opencv and tesseract subpackages); this package holds the shared
// types and the engine-independent geometry and label handling.
package detection

import (
	"context"
	"errors"
	"image"
	"math"
)

// ErrNoScaleBar is returned when edge detection yields no contours at all.
var ErrNoScaleBar = errors.New("no scale bar detected")

// Fractions of the image that hold the printed label, measured from the
// top-left corner.
const (
	LabelRegionTop  = 0.9
	LabelRegionLeft = 0.7
)

// BarDetection is the bounding box of the largest external contour.
type BarDetection struct {
	Bounds image.Rectangle
	Area   float64
}

// BarDetector locates the existing scale bar.
type BarDetector interface {
	DetectBar(ctx context.Context, img image.Image) (BarDetection, error)
}

// TextReader extracts a single line of text from the label region.
type TextReader interface {
	ReadText(ctx context.Context, img image.Image) (string, error)
}

// LabelRegion returns the bottom-right part of bounds that holds the label:
// the last 10% of rows and the last 30% of columns.
func LabelRegion(bounds image.Rectangle) image.Rectangle {
	top := bounds.Min.Y + int(math.Floor(float64(bounds.Dy())*LabelRegionTop+1e-9))
	left := bounds.Min.X + int(math.Floor(float64(bounds.Dx())*LabelRegionLeft+1e-9))
	return image.Rect(left, top, bounds.Max.X, bounds.Max.Y)
}
