package overlay

import (
	"image"

	"golang.org/x/image/font"
)

// Overlayer draws scale bars onto micrographs
type Overlayer interface {
	// AddScaleBar draws the bar for a magnification label. Unknown labels leave
	// the image untouched and report Applied == false.
	AddScaleBar(img image.Image, label string) Result

	// AddDetectedScaleBar draws a bar sized from an existing bar's bounds.
	AddDetectedScaleBar(img image.Image, bar image.Rectangle, label string) Result

	Magnifications() MagnificationTable
}

// FaceResolver supplies a font face for a requested pixel size
type FaceResolver interface {
	Resolve(sizePx int) font.Face
}

// Result describes one overlay pass
type Result struct {
	Image         image.Image
	Applied       bool
	Geometry      Geometry
	CropY         int // rows kept after trimming
	Magnification *Magnification
	Label         string
}
