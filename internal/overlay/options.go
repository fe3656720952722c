package overlay

import "image/color"

// TextAlign controls how the label is placed relative to the bar.
type TextAlign int

const (
	// AlignCenter centres the label over the bar midpoint
	AlignCenter TextAlign = iota
	// AlignLeft starts the label at the bar start
	AlignLeft
)

// TextAnchor says which edge of the label TextY refers to.
type TextAnchor int

const (
	AnchorTop TextAnchor = iota
	AnchorBaseline
)

// Options provides the placement and styling of a scale bar overlay
type Options struct {
	// Margin trimming
	TrimMargin          bool
	BrightnessThreshold float64 // 8-bit intensity step that marks the margin edge

	// Bar placement as fractions of the (trimmed) image size
	StartXFraction float64
	StartYFraction float64
	BarThickness   int

	// Label placement
	FontSizeFraction float64 // of image width; 0 selects the built-in face
	TextOffsetFactor float64 // multiples of the font size above the bar
	TextGapPx        int     // fixed pixels above the bar, added to the factor offset
	Align            TextAlign
	Anchor           TextAnchor

	BarColor  color.Color
	TextColor color.Color
}

// DefaultOptions returns options for the magnification-driven overlay
func DefaultOptions() Options {
	return Options{
		TrimMargin:          true,
		BrightnessThreshold: 5,
		StartXFraction:      0.75,
		StartYFraction:      0.92,
		BarThickness:        10,
		FontSizeFraction:    0.05,
		TextOffsetFactor:    1.2,
		Align:               AlignCenter,
		Anchor:              AnchorTop,
		BarColor:            color.White,
		TextColor:           color.White,
	}
}

// DetectedOptions returns options for the overlay drawn from a detected bar.
// It uses the built-in face and ignores the white margin.
func DetectedOptions() Options {
	return Options{
		TrimMargin:       false,
		StartXFraction:   0.85,
		StartYFraction:   0.95,
		BarThickness:     3,
		FontSizeFraction: 0,
		TextGapPx:        10,
		Align:            AlignLeft,
		Anchor:           AnchorBaseline,
		BarColor:         color.White,
		TextColor:        color.White,
	}
}

// WithColors returns options with custom bar and text colours
func (opts Options) WithColors(bar, text color.Color) Options {
	opts.BarColor = bar
	opts.TextColor = text
	return opts
}

// WithoutTrim disables margin trimming
func (opts Options) WithoutTrim() Options {
	opts.TrimMargin = false
	return opts
}

// WithBarThickness overrides the bar thickness; non-positive values are ignored
func (opts Options) WithBarThickness(px int) Options {
	if px > 0 {
		opts.BarThickness = px
	}
	return opts
}
