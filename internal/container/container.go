package container

import (
	"fmt"
	"net/http"

	"go-sem-scalebar/internal/config"
	"go-sem-scalebar/internal/detection/opencv"
	"go-sem-scalebar/internal/detection/tesseract"
	"go-sem-scalebar/internal/factory"
	"go-sem-scalebar/internal/fonts"
	"go-sem-scalebar/internal/logger"
	"go-sem-scalebar/internal/observer"
	"go-sem-scalebar/internal/overlay"
	"go-sem-scalebar/internal/repository"
	"go-sem-scalebar/internal/service"
	"go-sem-scalebar/internal/strategy"
	"go-sem-scalebar/internal/transport"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	imageRepository repository.ImageRepository
	metrics         *observer.MetricsObserver
	scaleBarService service.ScaleBarService
	handler         http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger.SetLevel(cfg.LogLevel)

	imageRepository, err := factory.NewImageRepository(factory.NewStorageFactory(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to build image repository: %w", err)
	}

	table := overlay.DefaultMagnifications()
	fontResolver := fonts.NewResolver(cfg.FontPaths)
	overlayer := overlay.NewOverlayer(table, fontResolver)

	detected := strategy.NewDetectedStrategy(
		overlayer,
		opencv.NewDetector(),
		tesseract.NewReader(cfg.OCRLanguage),
		cfg.DefaultLabel,
	)
	strategies := strategy.NewStrategyContext(strategy.NewMagnificationStrategy(overlayer), detected)

	metrics := observer.NewMetricsObserver()
	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	scaleBarService := service.NewScaleBarService(service.Config{
		Repository: imageRepository,
		Strategies: strategies,
		Detected:   detected,
		Table:      table,
		Fonts:      fontResolver,
		FontDirs:   cfg.FontDirs,
		Publisher:  publisher,
	})

	logger.WithFields(logrus.Fields{
		"strategies":    strategies.Names(),
		"azure_enabled": cfg.AzureEnabled(),
		"local_root":    cfg.LocalImageRoot,
		"active_font":   fontResolver.ResolvePath(),
	}).Info("Container initialised")

	return &Container{
		config:          cfg,
		imageRepository: imageRepository,
		metrics:         metrics,
		scaleBarService: scaleBarService,
		handler:         transport.NewHandler(scaleBarService, metrics, cfg),
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Service returns the scale-bar service, used by the CLI
func (c *Container) Service() service.ScaleBarService {
	return c.scaleBarService
}

// Metrics returns the render counters
func (c *Container) Metrics() observer.Metrics {
	return c.metrics.GetMetrics()
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}
