package models

import "image"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// MagnificationInfo describes one entry of the magnification table
type MagnificationInfo struct {
	Label string  `json:"label"`
	Ratio float64 `json:"ratio"`
	Text  string  `json:"text"`
}

// FontListResponse lists font files found in the configured directories
type FontListResponse struct {
	Fonts      []string `json:"fonts"`
	Count      int      `json:"count"`
	ActiveFont string   `json:"active_font,omitempty"`
}

// BarBounds is a pixel rectangle, Max exclusive
type BarBounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewBarBounds converts a rectangle into BarBounds
func NewBarBounds(r image.Rectangle) *BarBounds {
	return &BarBounds{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// DetectionResponse pre-fills the label for the detected variant
type DetectionResponse struct {
	Source            string     `json:"source"`
	Label             string     `json:"label"`
	RawText           string     `json:"raw_text"`
	DefaultUsed       bool       `json:"default_used"`
	Snapped           bool       `json:"snapped"`
	OCRError          string     `json:"ocr_error,omitempty"`
	Bar               *BarBounds `json:"bar,omitempty"`
	BarError          string     `json:"bar_error,omitempty"`
	ProcessingTimeSec float64    `json:"processing_time_sec"`
}
