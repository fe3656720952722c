package strategy

import (
	"context"
	"fmt"
	"image"
	"sort"

	"go-sem-scalebar/internal/detection"
	"go-sem-scalebar/internal/overlay"
)

// Strategy names
const (
	MagnificationName = "magnification"
	DetectedName      = "detected"
)

// Request carries the inputs of one scale-bar pass
type Request struct {
	Image         image.Image
	Magnification string // magnification strategy only
	Label         string // detected strategy only; empty means read it from the image
}

// Outcome is the overlay result plus whatever detection produced
type Outcome struct {
	overlay.Result
	Bar     *detection.BarDetection
	Reading *detection.LabelReading
}

// ScaleBarStrategy defines the interface for the scale-bar variants
type ScaleBarStrategy interface {
	Apply(ctx context.Context, req Request) (*Outcome, error)
	GetStrategyName() string
}

// MagnificationStrategy draws a bar sized from the magnification table
type MagnificationStrategy struct {
	overlayer overlay.Overlayer
}

// NewMagnificationStrategy creates a new magnification strategy
func NewMagnificationStrategy(o overlay.Overlayer) *MagnificationStrategy {
	return &MagnificationStrategy{overlayer: o}
}

// Apply draws the bar; an unknown magnification returns the image unchanged
func (s *MagnificationStrategy) Apply(ctx context.Context, req Request) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Outcome{Result: s.overlayer.AddScaleBar(req.Image, req.Magnification)}, nil
}

// GetStrategyName returns the strategy name
func (s *MagnificationStrategy) GetStrategyName() string {
	return MagnificationName
}

// DetectedStrategy finds the existing bar, reads its label and draws a new bar
type DetectedStrategy struct {
	overlayer    overlay.Overlayer
	detector     detection.BarDetector
	reader       detection.TextReader
	defaultLabel string
}

// NewDetectedStrategy creates a new detected strategy
func NewDetectedStrategy(o overlay.Overlayer, detector detection.BarDetector, reader detection.TextReader, defaultLabel string) *DetectedStrategy {
	return &DetectedStrategy{
		overlayer:    o,
		detector:     detector,
		reader:       reader,
		defaultLabel: defaultLabel,
	}
}

// Apply fails with detection.ErrNoScaleBar when no contour is found. A caller
// supplied label skips OCR.
func (s *DetectedStrategy) Apply(ctx context.Context, req Request) (*Outcome, error) {
	bar, err := s.DetectBar(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Bar: &bar}
	label := req.Label
	if label == "" {
		reading := s.ReadLabel(ctx, req.Image)
		out.Reading = &reading
		label = reading.Label
	}

	out.Result = s.overlayer.AddDetectedScaleBar(req.Image, bar.Bounds, label)
	return out, nil
}

// DetectBar runs the bar detector
func (s *DetectedStrategy) DetectBar(ctx context.Context, img image.Image) (detection.BarDetection, error) {
	if s.detector == nil {
		return detection.BarDetection{}, fmt.Errorf("bar detector not configured")
	}
	return s.detector.DetectBar(ctx, img)
}

// ReadLabel reads the on-image label and resolves it against the known label texts
func (s *DetectedStrategy) ReadLabel(ctx context.Context, img image.Image) detection.LabelReading {
	var (
		text string
		err  error
	)
	if s.reader == nil {
		err = fmt.Errorf("text reader not configured")
	} else {
		text, err = s.reader.ReadText(ctx, img)
	}

	known := append(s.overlayer.Magnifications().Texts(), s.defaultLabel)
	return detection.ResolveLabel(text, err, known, s.defaultLabel)
}

// GetStrategyName returns the strategy name
func (s *DetectedStrategy) GetStrategyName() string {
	return DetectedName
}

// StrategyContext selects a strategy by name
type StrategyContext struct {
	strategies map[string]ScaleBarStrategy
}

// NewStrategyContext creates a context holding the given strategies
func NewStrategyContext(strategies ...ScaleBarStrategy) *StrategyContext {
	c := &StrategyContext{strategies: make(map[string]ScaleBarStrategy, len(strategies))}
	for _, s := range strategies {
		c.strategies[s.GetStrategyName()] = s
	}
	return c
}

// Get returns the named strategy
func (c *StrategyContext) Get(name string) (ScaleBarStrategy, bool) {
	s, ok := c.strategies[name]
	return s, ok
}

// Execute applies the named strategy
func (c *StrategyContext) Execute(ctx context.Context, name string, req Request) (*Outcome, error) {
	s, ok := c.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
	return s.Apply(ctx, req)
}

// Names returns the registered strategy names in sorted order
func (c *StrategyContext) Names() []string {
	names := make([]string, 0, len(c.strategies))
	for name := range c.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
