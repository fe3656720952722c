package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"go-sem-scalebar/internal/detection"
	apperrors "go-sem-scalebar/internal/errors"
	"go-sem-scalebar/internal/fonts"
	"go-sem-scalebar/internal/observer"
	"go-sem-scalebar/internal/overlay"
	"go-sem-scalebar/internal/repository"
	"go-sem-scalebar/internal/storage"
	"go-sem-scalebar/internal/strategy"
	"go-sem-scalebar/pkg/models"
	"go-sem-scalebar/pkg/validation"
)

// ScaleBarService defines the operations behind the three command variants
type ScaleBarService interface {
	// AddScaleBar draws a bar sized from the magnification table
	AddScaleBar(ctx context.Context, input ScaleBarInput) (*RenderedImage, error)

	// DetectLabel reads the existing label and bar so the caller can correct them
	DetectLabel(ctx context.Context, input ImageInput) (*models.DetectionResponse, error)

	// AddDetectedScaleBar draws a bar sized from the detected bar
	AddDetectedScaleBar(ctx context.Context, input ScaleBarInput) (*RenderedImage, error)

	ListFonts(ctx context.Context) *models.FontListResponse
	Magnifications() []models.MagnificationInfo
}

// ImageInput is either uploaded bytes or a source resolved by the repository.
// Uploaded data wins when both are set.
type ImageInput struct {
	Data     []byte
	Filename string
	Source   string
}

// ScaleBarInput adds the per-variant parameters
type ScaleBarInput struct {
	ImageInput
	Magnification string
	Label         string
}

// RenderedImage is the encoded result of a scale-bar pass
type RenderedImage struct {
	PNG      []byte
	Filename string
	Applied  bool
	Geometry overlay.Geometry
	Label    string
	CropY    int
	Reading  *detection.LabelReading
	Bar      *detection.BarDetection
}

// FontPathResolver reports which font file is in use
type FontPathResolver interface {
	ResolvePath() string
}

// Config holds the service dependencies
type Config struct {
	Repository repository.ImageRepository
	Strategies *strategy.StrategyContext
	Detected   *strategy.DetectedStrategy
	Table      overlay.MagnificationTable
	Fonts      FontPathResolver
	FontDirs   []string
	Publisher  observer.Subject
}

type scaleBarService struct {
	repo       repository.ImageRepository
	strategies *strategy.StrategyContext
	detected   *strategy.DetectedStrategy
	table      overlay.MagnificationTable
	fonts      FontPathResolver
	fontDirs   []string
	publisher  observer.Subject
	urls       *validation.URLValidator
}

// NewScaleBarService creates a new scale-bar service
func NewScaleBarService(cfg Config) ScaleBarService {
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = observer.NewEventPublisher()
	}
	return &scaleBarService{
		repo:       cfg.Repository,
		strategies: cfg.Strategies,
		detected:   cfg.Detected,
		table:      cfg.Table,
		fonts:      cfg.Fonts,
		fontDirs:   append([]string(nil), cfg.FontDirs...),
		publisher:  publisher,
		urls:       validation.NewURLValidator(),
	}
}

func (s *scaleBarService) AddScaleBar(ctx context.Context, input ScaleBarInput) (*RenderedImage, error) {
	if err := validation.ValidateMagnification(input.Magnification); err != nil {
		return nil, err
	}
	return s.render(ctx, strategy.MagnificationName, input)
}

func (s *scaleBarService) AddDetectedScaleBar(ctx context.Context, input ScaleBarInput) (*RenderedImage, error) {
	if input.Label != "" {
		if err := validation.ValidateLabel(input.Label); err != nil {
			return nil, err
		}
	}
	return s.render(ctx, strategy.DetectedName, input)
}

func (s *scaleBarService) render(ctx context.Context, variant string, input ScaleBarInput) (*RenderedImage, error) {
	start := time.Now()
	event := observer.RenderEvent{Variant: variant, Source: sourceName(input.ImageInput)}

	event.EventType = observer.RenderStarted
	s.publisher.NotifyObservers(ctx, event)

	fail := func(err error) (*RenderedImage, error) {
		event.EventType = observer.RenderFailed
		event.ProcessingTime = time.Since(start)
		event.ErrorMessage = err.Error()
		s.publisher.NotifyObservers(ctx, event)
		return nil, err
	}

	src, err := s.loadImage(ctx, input.ImageInput)
	if err != nil {
		return fail(err)
	}

	out, err := s.strategies.Execute(ctx, variant, strategy.Request{
		Image:         src.Image,
		Magnification: input.Magnification,
		Label:         strings.TrimSpace(input.Label),
	})
	if err != nil {
		if errors.Is(err, detection.ErrNoScaleBar) {
			s.publishDetectionFailure(ctx, event, err)
		}
		return fail(mapProcessingError(err))
	}
	if out.Reading != nil && out.Reading.OCRError != "" {
		s.publishDetectionFailure(ctx, event, errors.New(out.Reading.OCRError))
	}

	data, err := storage.EncodePNG(out.Image)
	if err != nil {
		return fail(apperrors.NewInternalError("failed to encode image", err))
	}

	event.EventType = observer.RenderCompleted
	event.Success = true
	event.ProcessingTime = time.Since(start)
	event.Metadata = map[string]interface{}{
		"applied": out.Applied,
		"label":   out.Label,
		"crop_y":  out.CropY,
	}
	s.publisher.NotifyObservers(ctx, event)

	return &RenderedImage{
		PNG:      data,
		Filename: storage.EditedFilename(src.Name),
		Applied:  out.Applied,
		Geometry: out.Geometry,
		Label:    out.Label,
		CropY:    out.CropY,
		Reading:  out.Reading,
		Bar:      out.Bar,
	}, nil
}

func (s *scaleBarService) DetectLabel(ctx context.Context, input ImageInput) (*models.DetectionResponse, error) {
	start := time.Now()
	if s.detected == nil {
		return nil, apperrors.NewInternalError("detection is not configured", nil)
	}

	src, err := s.loadImage(ctx, input)
	if err != nil {
		return nil, err
	}

	reading := s.detected.ReadLabel(ctx, src.Image)
	resp := &models.DetectionResponse{
		Source:      sourceName(input),
		Label:       reading.Label,
		RawText:     reading.RawText,
		DefaultUsed: reading.DefaultUsed,
		Snapped:     reading.Snapped,
		OCRError:    reading.OCRError,
	}

	event := observer.RenderEvent{Variant: strategy.DetectedName, Source: resp.Source}
	if reading.OCRError != "" {
		s.publishDetectionFailure(ctx, event, errors.New(reading.OCRError))
	}

	bar, err := s.detected.DetectBar(ctx, src.Image)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apperrors.NewTimeoutError("detection timed out", ctxErr)
		}
		resp.BarError = err.Error()
		s.publishDetectionFailure(ctx, event, err)
	} else {
		resp.Bar = models.NewBarBounds(bar.Bounds)
	}

	resp.ProcessingTimeSec = time.Since(start).Seconds()
	return resp, nil
}

func (s *scaleBarService) ListFonts(ctx context.Context) *models.FontListResponse {
	files := fonts.ListFontFiles(s.fontDirs)
	resp := &models.FontListResponse{Fonts: files, Count: len(files)}
	if s.fonts != nil {
		resp.ActiveFont = s.fonts.ResolvePath()
	}
	return resp
}

func (s *scaleBarService) Magnifications() []models.MagnificationInfo {
	entries := s.table.Entries()
	infos := make([]models.MagnificationInfo, len(entries))
	for i, m := range entries {
		infos[i] = models.MagnificationInfo{Label: m.Label, Ratio: m.Ratio, Text: m.Text}
	}
	return infos
}

func (s *scaleBarService) loadImage(ctx context.Context, input ImageInput) (*storage.SourceImage, error) {
	var (
		src *storage.SourceImage
		err error
	)

	switch {
	case len(input.Data) > 0:
		src, err = storage.DecodeImage(bytes.NewReader(input.Data), input.Filename)
		if errors.Is(err, storage.ErrUnsupportedFormat) || errors.Is(err, storage.ErrImageTooLarge) {
			return nil, mapSourceError(err)
		}
		if err != nil {
			return nil, apperrors.NewValidationError("uploaded image could not be decoded", err)
		}
	case strings.TrimSpace(input.Source) != "":
		if validation.IsURL(input.Source) {
			if err := s.urls.ValidateImageURL(input.Source); err != nil {
				return nil, err
			}
		}
		if s.repo == nil {
			return nil, apperrors.NewValidationError("image sources are not configured", nil)
		}
		src, err = s.repo.FetchImage(ctx, input.Source)
		if err != nil {
			return nil, mapSourceError(err)
		}
	default:
		return nil, apperrors.NewValidationError("an image upload or source is required", nil)
	}

	if err := validation.ValidateDimensions(src.Image.Bounds()); err != nil {
		return nil, err
	}
	return src, nil
}

func (s *scaleBarService) publishDetectionFailure(ctx context.Context, event observer.RenderEvent, err error) {
	event.EventType = observer.DetectionFailed
	event.ErrorMessage = err.Error()
	s.publisher.NotifyObservers(ctx, event)
}

func sourceName(input ImageInput) string {
	if len(input.Data) > 0 {
		return input.Filename
	}
	return input.Source
}
