package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-sem-scalebar/internal/config"
	apperrors "go-sem-scalebar/internal/errors"
	"go-sem-scalebar/internal/logger"
	"go-sem-scalebar/internal/observer"
	"go-sem-scalebar/internal/service"
	"go-sem-scalebar/pkg/models"
	"go-sem-scalebar/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MetricsProvider exposes render counters
type MetricsProvider interface {
	GetMetrics() observer.Metrics
}

// NewHandler builds the gin router. metrics may be nil, in which case /stats
// is not registered.
func NewHandler(svc service.ScaleBarService, metrics MetricsProvider, cfg *config.Config) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.GET("/fonts", listFonts(svc))
	r.GET("/magnifications", listMagnifications(svc))
	if metrics != nil {
		r.GET("/stats", stats(metrics))
	}

	r.POST("/scalebar", addScaleBar(svc, cfg))
	r.POST("/scalebar/detect", detectLabel(svc, cfg))
	r.POST("/scalebar/auto", addDetectedScaleBar(svc, cfg))

	return r
}

func addScaleBar(svc service.ScaleBarService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		input, err := readImageInput(c, cfg.MaxRequestBodySize)
		if err != nil {
			respondAppError(c, "invalid image input", err)
			return
		}

		out, err := svc.AddScaleBar(ctx, service.ScaleBarInput{
			ImageInput:    input,
			Magnification: c.PostForm("magnification"),
		})
		if err != nil {
			respondAppError(c, "failed to add scale bar", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"source":        sourceOf(input),
			"magnification": c.PostForm("magnification"),
			"applied":       out.Applied,
			"length_px":     out.Geometry.LengthPx,
		}).Info("Scale bar added")

		respondPNG(c, out)
	}
}

func addDetectedScaleBar(svc service.ScaleBarService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		input, err := readImageInput(c, cfg.MaxRequestBodySize)
		if err != nil {
			respondAppError(c, "invalid image input", err)
			return
		}

		out, err := svc.AddDetectedScaleBar(ctx, service.ScaleBarInput{
			ImageInput: input,
			Label:      c.PostForm("label"),
		})
		if err != nil {
			respondAppError(c, "failed to add detected scale bar", err)
			return
		}

		fields := logrus.Fields{
			"source":    sourceOf(input),
			"label":     out.Label,
			"length_px": out.Geometry.LengthPx,
		}
		if out.Reading != nil {
			fields["ocr_text"] = out.Reading.RawText
			fields["default_used"] = out.Reading.DefaultUsed
		}
		logger.WithFields(fields).Info("Detected scale bar added")

		respondPNG(c, out)
	}
}

func detectLabel(svc service.ScaleBarService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		input, err := readImageInput(c, cfg.MaxRequestBodySize)
		if err != nil {
			respondAppError(c, "invalid image input", err)
			return
		}

		resp, err := svc.DetectLabel(ctx, input)
		if err != nil {
			respondAppError(c, "failed to detect scale bar", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func listFonts(svc service.ScaleBarService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.ListFonts(c.Request.Context()))
	}
}

func listMagnifications(svc service.ScaleBarService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"magnifications": svc.Magnifications()})
	}
}

func stats(metrics MetricsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "available",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   "sem-scalebar",
	})
}

// readImageInput takes the multipart "image" file when present and falls back
// to the "source" form field.
func readImageInput(c *gin.Context, maxSize int64) (service.ImageInput, error) {
	fh, err := c.FormFile("image")
	switch {
	case err == nil:
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return service.ImageInput{Source: strings.TrimSpace(c.PostForm("source"))}, nil
	case isBodyTooLarge(err):
		return service.ImageInput{}, &apperrors.AppError{
			Type:       apperrors.ErrorTypeValidation,
			Message:    fmt.Sprintf("request body exceeds %d bytes", maxSize),
			StatusCode: http.StatusRequestEntityTooLarge,
			Cause:      err,
		}
	default:
		return service.ImageInput{}, apperrors.NewValidationError("malformed multipart form", err)
	}

	if err := validation.ValidateUpload(fh.Filename, fh.Size, maxSize); err != nil {
		return service.ImageInput{}, err
	}

	f, err := fh.Open()
	if err != nil {
		return service.ImageInput{}, apperrors.NewInternalError("failed to open upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return service.ImageInput{}, apperrors.NewInternalError("failed to read upload", err)
	}
	return service.ImageInput{Data: data, Filename: fh.Filename}, nil
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func respondPNG(c *gin.Context, out *service.RenderedImage) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	c.Header("X-Scalebar-Applied", strconv.FormatBool(out.Applied))
	c.Header("X-Scalebar-Crop-Y", strconv.Itoa(out.CropY))
	c.Data(http.StatusOK, "image/png", out.PNG)
}

func sourceOf(input service.ImageInput) string {
	if input.Filename != "" {
		return input.Filename
	}
	return input.Source
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}).Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondAppError(c *gin.Context, message string, err error) {
	respondError(c, determineStatusCode(err), message, err)
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	text := message
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		text = fmt.Sprintf("%s: %s", message, appErr.Message)
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: text,
	})
}
