package overlay

import "math"

// Geometry is the pixel layout of one scale bar overlay.
type Geometry struct {
	StartX     int `json:"start_x"`
	StartY     int `json:"start_y"`
	LengthPx   int `json:"length_px"`
	FontSizePx int `json:"font_size_px"`
	TextX      int `json:"text_x"` // label centre for AlignCenter, label start for AlignLeft
	TextY      int `json:"text_y"` // label top or baseline, see Options.Anchor
}

// ComputeGeometry lays out a bar of lengthPx on a width×height image.
func ComputeGeometry(width, height, lengthPx, fontSizePx int, opts Options) Geometry {
	g := Geometry{
		StartX:     fraction(width, opts.StartXFraction),
		StartY:     fraction(height, opts.StartYFraction),
		LengthPx:   lengthPx,
		FontSizePx: fontSizePx,
	}

	g.TextX = g.StartX
	if opts.Align == AlignCenter {
		g.TextX = g.StartX + lengthPx/2
	}
	g.TextY = g.StartY - fraction(fontSizePx, opts.TextOffsetFactor) - opts.TextGapPx
	return g
}

// MagnificationGeometry derives bar length and font size from the image width.
func MagnificationGeometry(width, height int, m Magnification, opts Options) Geometry {
	return ComputeGeometry(width, height, fraction(width, m.Ratio), fraction(width, opts.FontSizeFraction), opts)
}

// fraction returns floor(n*f). The epsilon keeps products such as 1000*0.22
// from landing one pixel short due to binary rounding.
func fraction(n int, f float64) int {
	return int(math.Floor(float64(n)*f + 1e-9))
}
