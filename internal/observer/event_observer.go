package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RenderEvent represents a scale-bar rendering event
type RenderEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	Variant        string                 `json:"variant"`
	Source         string                 `json:"source"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of render event
type EventType string

const (
	// RenderStarted when a scale-bar request begins
	RenderStarted EventType = "render_started"
	// RenderCompleted when the overlay was drawn and encoded
	RenderCompleted EventType = "render_completed"
	// RenderFailed when the request could not produce an image
	RenderFailed EventType = "render_failed"
	// DetectionFailed when bar detection or OCR did not produce a result
	DetectionFailed EventType = "detection_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event RenderEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event RenderEvent)
}

// LoggingObserver logs render events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) *LoggingObserver {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles render events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event RenderEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"variant":         event.Variant,
		"source":          event.Source,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case RenderStarted:
		entry.Debug("Scale bar render started")
	case RenderCompleted:
		entry.Info("Scale bar render completed")
	case RenderFailed:
		entry.Error("Scale bar render failed")
	case DetectionFailed:
		entry.Warn("Scale bar detection failed")
	default:
		entry.Info("Render event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// Metrics is a snapshot of MetricsObserver counters
type Metrics struct {
	TotalRenders        int64            `json:"total_renders"`
	SuccessfulRenders   int64            `json:"successful_renders"`
	FailedRenders       int64            `json:"failed_renders"`
	DetectionFailures   int64            `json:"detection_failures"`
	RendersByVariant    map[string]int64 `json:"renders_by_variant"`
	TotalProcessingTime time.Duration    `json:"total_processing_time_ns"`
	AvgProcessingTime   time.Duration    `json:"avg_processing_time_ns"`
}

// MetricsObserver collects counters from render events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalRenders        int64
	successfulRenders   int64
	failedRenders       int64
	detectionFailures   int64
	byVariant           map[string]int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{byVariant: make(map[string]int64)}
}

// OnEvent handles render events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event RenderEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case RenderStarted:
		o.totalRenders++
		o.byVariant[event.Variant]++
	case RenderCompleted:
		o.successfulRenders++
		o.totalProcessingTime += event.ProcessingTime
	case RenderFailed:
		o.failedRenders++
	case DetectionFailed:
		o.detectionFailures++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	m := Metrics{
		TotalRenders:        o.totalRenders,
		SuccessfulRenders:   o.successfulRenders,
		FailedRenders:       o.failedRenders,
		DetectionFailures:   o.detectionFailures,
		RendersByVariant:    make(map[string]int64, len(o.byVariant)),
		TotalProcessingTime: o.totalProcessingTime,
	}
	for k, v := range o.byVariant {
		m.RendersByVariant[k] = v
	}
	if o.successfulRenders > 0 {
		m.AvgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulRenders)
	}
	return m
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to every observer in subscription order
// before returning. A panicking observer does not stop the others.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event RenderEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, obs := range observers {
		notify(ctx, obs, event)
	}
}

func notify(ctx context.Context, obs Observer, event RenderEvent) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
