package detection

import (
	"strings"
	"unicode"

	"github.com/arbovm/levenshtein"
)

// MaxSnapDistance is the largest edit distance at which OCR text is replaced
// by a known label with the same numeric value.
const MaxSnapDistance = 2

// LabelReading is the outcome of reading the on-image label.
type LabelReading struct {
	RawText     string `json:"raw_text"`
	Label       string `json:"label"`
	DefaultUsed bool   `json:"default_used"`
	Snapped     bool   `json:"snapped"`
	OCRError    string `json:"ocr_error,omitempty"`
}

// ResolveLabel turns an OCR result into the label offered to the user.
//
// A failed read leaves the label empty and records the error; an empty read
// substitutes defaultLabel; anything else is snapped to a known label when
// it is a near miss.
func ResolveLabel(text string, readErr error, known []string, defaultLabel string) LabelReading {
	if readErr != nil {
		return LabelReading{OCRError: readErr.Error()}
	}

	text = strings.TrimSpace(text)
	reading := LabelReading{RawText: text}
	if text == "" {
		reading.Label = defaultLabel
		reading.DefaultUsed = true
		return reading
	}

	reading.Label = text
	if snapped, ok := SnapLabel(text, known, MaxSnapDistance); ok {
		reading.Label = snapped
		reading.Snapped = snapped != text
	}
	return reading
}

// SnapLabel returns the known label closest to text, provided both carry the
// same number and their normalised forms are within maxDistance edits.
func SnapLabel(text string, known []string, maxDistance int) (string, bool) {
	norm := normalizeUnits(text)
	number := leadingNumber(norm)
	if number == "" {
		return "", false
	}

	best, bestDistance := "", maxDistance+1
	for _, candidate := range known {
		cand := normalizeUnits(candidate)
		if leadingNumber(cand) != number {
			continue
		}
		if d := levenshtein.Distance(norm, cand); d < bestDistance {
			best, bestDistance = candidate, d
		}
	}
	return best, best != ""
}

// normalizeUnits lower-cases, unifies the micro sign, separates the number
// from the unit and collapses whitespace, so "3um" and "3 μm" compare equal
// to "3 µm".
func normalizeUnits(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "μ", "µ")

	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if r == 'u' && i+1 < len(runes) && runes[i+1] == 'm' && (i == 0 || !unicode.IsLetter(runes[i-1])) {
			r = 'µ'
		}
		if i > 0 && unicode.IsDigit(runes[i-1]) && unicode.IsLetter(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func leadingNumber(s string) string {
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	return s[:end]
}
