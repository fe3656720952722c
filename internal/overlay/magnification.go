package overlay

import (
	"fmt"
	"strings"
)

// Magnification maps a microscope zoom label to the bar proportion and the
// physical distance that proportion represents.
type Magnification struct {
	Label string
	Ratio float64 // bar length as a fraction of image width, in (0, 1]
	Text  string
}

// MagnificationTable is an immutable, ordered set of magnifications.
type MagnificationTable struct {
	entries []Magnification
	index   map[string]int
}

// DefaultMagnifications returns the table for the supported zoom levels.
func DefaultMagnifications() MagnificationTable {
	table, err := NewMagnificationTable(
		Magnification{Label: "1k", Ratio: 0.20, Text: "20 µm"},
		Magnification{Label: "7k", Ratio: 0.22, Text: "3 µm"},
		Magnification{Label: "10k", Ratio: 0.10, Text: "1 µm"},
	)
	if err != nil {
		panic(err)
	}
	return table
}

// NewMagnificationTable validates and indexes the given entries.
func NewMagnificationTable(entries ...Magnification) (MagnificationTable, error) {
	table := MagnificationTable{
		entries: make([]Magnification, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, m := range entries {
		key := normalizeLabel(m.Label)
		switch {
		case key == "":
			return MagnificationTable{}, fmt.Errorf("magnification label cannot be empty")
		case m.Ratio <= 0 || m.Ratio > 1:
			return MagnificationTable{}, fmt.Errorf("magnification %q: ratio %v outside (0, 1]", m.Label, m.Ratio)
		case strings.TrimSpace(m.Text) == "":
			return MagnificationTable{}, fmt.Errorf("magnification %q: label text cannot be empty", m.Label)
		}
		if _, dup := table.index[key]; dup {
			return MagnificationTable{}, fmt.Errorf("duplicate magnification label %q", m.Label)
		}
		table.index[key] = len(table.entries)
		table.entries = append(table.entries, m)
	}
	return table, nil
}

// Lookup finds a magnification by label, ignoring case and surrounding space.
func (t MagnificationTable) Lookup(label string) (Magnification, bool) {
	i, ok := t.index[normalizeLabel(label)]
	if !ok {
		return Magnification{}, false
	}
	return t.entries[i], true
}

// Entries returns a copy of the table in declaration order.
func (t MagnificationTable) Entries() []Magnification {
	return append([]Magnification(nil), t.entries...)
}

func (t MagnificationTable) Labels() []string {
	labels := make([]string, len(t.entries))
	for i, m := range t.entries {
		labels[i] = m.Label
	}
	return labels
}

// Texts returns the distinct label texts, used to snap OCR output.
func (t MagnificationTable) Texts() []string {
	seen := make(map[string]bool, len(t.entries))
	var texts []string
	for _, m := range t.entries {
		if !seen[m.Text] {
			seen[m.Text] = true
			texts = append(texts, m.Text)
		}
	}
	return texts
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
