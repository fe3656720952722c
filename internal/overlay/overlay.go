package overlay

import (
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// coreOverlay implements Overlayer
type coreOverlay struct {
	table    MagnificationTable
	faces    FaceResolver
	manual   Options
	detected Options
}

// NewOverlayer creates an overlayer with the default options for both variants
func NewOverlayer(table MagnificationTable, faces FaceResolver) Overlayer {
	return NewOverlayerWithOptions(table, faces, DefaultOptions(), DetectedOptions())
}

// NewOverlayerWithOptions creates an overlayer with explicit options
func NewOverlayerWithOptions(table MagnificationTable, faces FaceResolver, manual, detected Options) Overlayer {
	return &coreOverlay{
		table:    table,
		faces:    faces,
		manual:   manual,
		detected: detected,
	}
}

func (o *coreOverlay) Magnifications() MagnificationTable {
	return o.table
}

func (o *coreOverlay) AddScaleBar(img image.Image, label string) Result {
	m, ok := o.table.Lookup(label)
	if !ok {
		return Result{Image: img, CropY: img.Bounds().Dy(), Label: label}
	}

	src, cropY := img, img.Bounds().Dy()
	if o.manual.TrimMargin {
		src, cropY = TrimMargin(img, o.manual.BrightnessThreshold)
	}

	canvas := imaging.Clone(src)
	bounds := canvas.Bounds()
	g := MagnificationGeometry(bounds.Dx(), bounds.Dy(), m, o.manual)

	drawBar(canvas, g.StartX, g.StartY, g.LengthPx, o.manual.BarThickness, o.manual.BarColor)
	drawLabel(canvas, o.face(g.FontSizePx, o.manual), m.Text, g, o.manual)

	return Result{
		Image:         canvas,
		Applied:       true,
		Geometry:      g,
		CropY:         cropY,
		Magnification: &m,
		Label:         m.Text,
	}
}

func (o *coreOverlay) AddDetectedScaleBar(img image.Image, bar image.Rectangle, label string) Result {
	src, cropY := img, img.Bounds().Dy()
	if o.detected.TrimMargin {
		src, cropY = TrimMargin(img, o.detected.BrightnessThreshold)
	}

	canvas := imaging.Clone(src)
	bounds := canvas.Bounds()

	var face font.Face = basicfont.Face7x13
	fontSize := basicfont.Face7x13.Height
	if o.detected.FontSizeFraction > 0 {
		fontSize = fraction(bounds.Dx(), o.detected.FontSizeFraction)
		face = o.face(fontSize, o.detected)
	}
	g := ComputeGeometry(bounds.Dx(), bounds.Dy(), bar.Dx()/3, fontSize, o.detected)

	drawBar(canvas, g.StartX, g.StartY, g.LengthPx, o.detected.BarThickness, o.detected.BarColor)
	drawLabel(canvas, face, label, g, o.detected)

	return Result{
		Image:    canvas,
		Applied:  true,
		Geometry: g,
		CropY:    cropY,
		Label:    label,
	}
}

func (o *coreOverlay) face(sizePx int, opts Options) font.Face {
	if o.faces == nil || opts.FontSizeFraction <= 0 {
		return basicfont.Face7x13
	}
	return o.faces.Resolve(sizePx)
}
