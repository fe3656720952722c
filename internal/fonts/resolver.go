// Package fonts locates font files on the host and turns them into faces.
package fonts

import (
	"os"
	"sync"

	"go-sem-scalebar/internal/logger"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Face is a font face together with the file it came from. Path is empty for
// the built-in fallback face.
type Face struct {
	font.Face
	Path string

	parsed *opentype.Font
}

// HasGlyph reports whether the face can draw r without a substitute glyph.
func (f *Face) HasGlyph(r rune) bool {
	if f.parsed == nil {
		if bf, ok := f.Face.(*basicfont.Face); ok {
			for _, rng := range bf.Ranges {
				if rng.Low <= r && r < rng.High {
					return true
				}
			}
		}
		return false
	}
	var buf sfnt.Buffer
	idx, err := f.parsed.GlyphIndex(&buf, r)
	return err == nil && idx != 0
}

// Resolver walks an ordered list of font files and loads the first usable one.
type Resolver struct {
	paths []string

	mu    sync.Mutex
	cache map[string]*opentype.Font
}

// NewResolver creates a resolver over candidate font file paths, probed in order
func NewResolver(paths []string) *Resolver {
	return &Resolver{
		paths: append([]string(nil), paths...),
		cache: make(map[string]*opentype.Font),
	}
}

// Candidates returns the probe order.
func (r *Resolver) Candidates() []string {
	return append([]string(nil), r.paths...)
}

// Resolve returns a face at sizePx pixels from the first candidate that exists
// and parses. When no candidate is usable the built-in 7x13 face is returned,
// whose size does not follow the request.
func (r *Resolver) Resolve(sizePx int) font.Face {
	if sizePx < 1 {
		sizePx = 1
	}

	for _, path := range r.paths {
		parsed, err := r.load(path)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.WithError(err).WithField("path", path).Warn("Skipping unusable font file")
			}
			continue
		}

		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    float64(sizePx),
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			logger.WithError(err).WithField("path", path).Warn("Failed to create font face")
			continue
		}

		logger.WithFields(logrus.Fields{
			"path":    path,
			"size_px": sizePx,
		}).Debug("Resolved font")
		return &Face{Face: face, Path: path, parsed: parsed}
	}

	logger.WithField("size_px", sizePx).Debug("No font file found, using built-in face")
	return &Face{Face: basicfont.Face7x13}
}

// ResolvePath returns the path Resolve would use, or "" for the built-in face.
func (r *Resolver) ResolvePath() string {
	for _, path := range r.paths {
		if _, err := r.load(path); err == nil {
			return path
		}
	}
	return ""
}

func (r *Resolver) load(path string) (*opentype.Font, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if parsed, ok := r.cache[path]; ok {
		return parsed, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	r.cache[path] = parsed
	return parsed, nil
}
