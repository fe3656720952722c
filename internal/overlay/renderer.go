package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// microSigns are the code points OCR engines and users type for "micro".
var microSigns = []rune{'µ', 'μ'}

// glyphChecker is implemented by faces that can report missing glyphs.
type glyphChecker interface {
	HasGlyph(r rune) bool
}

// drawBar fills a horizontal bar of the given thickness centred on row y.
func drawBar(dst draw.Image, x, y, length, thickness int, col color.Color) {
	if length <= 0 || thickness <= 0 {
		return
	}
	top := y - thickness/2
	rect := image.Rect(x, top, x+length, top+thickness).Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(dst, rect, image.NewUniform(col), image.Point{}, draw.Src)
}

// drawLabel renders text with the layout described by g and opts.
func drawLabel(dst draw.Image, face font.Face, text string, g Geometry, opts Options) {
	text = renderableText(face, text)
	if text == "" {
		return
	}

	x := g.TextX
	if opts.Align == AlignCenter {
		x -= font.MeasureString(face, text).Ceil() / 2
	}
	baseline := g.TextY
	if opts.Anchor == AnchorTop {
		baseline += face.Metrics().Ascent.Ceil()
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(opts.TextColor),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}

// renderableText swaps the micro sign for "u" when the face cannot draw it.
func renderableText(face font.Face, text string) string {
	for _, r := range microSigns {
		if strings.ContainsRune(text, r) && !hasGlyph(face, r) {
			text = strings.ReplaceAll(text, string(r), "u")
		}
	}
	return text
}

func hasGlyph(face font.Face, r rune) bool {
	switch f := face.(type) {
	case glyphChecker:
		return f.HasGlyph(r)
	case *basicfont.Face:
		for _, rng := range f.Ranges {
			if rng.Low <= r && r < rng.High {
				return true
			}
		}
		return false
	}
	_, ok := face.GlyphAdvance(r)
	return ok
}
