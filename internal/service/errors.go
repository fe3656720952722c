package service

import (
	"context"
	"errors"

	"go-sem-scalebar/internal/detection"
	apperrors "go-sem-scalebar/internal/errors"
	"go-sem-scalebar/internal/repository"
	"go-sem-scalebar/internal/storage"
)

// mapSourceError turns fetch and decode failures into AppErrors
func mapSourceError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, storage.ErrUnsupportedFormat):
		return apperrors.NewValidationError("image must be JPEG or PNG", err)
	case errors.Is(err, storage.ErrImageTooLarge):
		return apperrors.NewValidationError(err.Error(), err)
	case errors.Is(err, storage.ErrOutsideRoot):
		return apperrors.NewValidationError("image path is outside the configured root", err)
	case errors.Is(err, repository.ErrInvalidSource):
		return apperrors.NewValidationError("invalid image source", err)
	case errors.Is(err, repository.ErrRepositoryUnavailable):
		return apperrors.NewValidationError("image source type is not enabled", err)
	case errors.Is(err, repository.ErrImageNotFound):
		return apperrors.NewNotFoundError("image not found", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("timed out fetching image", err)
	case errors.Is(err, context.Canceled):
		return apperrors.NewTimeoutError("request cancelled", err)
	default:
		return apperrors.NewNetworkError("failed to fetch image", err)
	}
}

// mapProcessingError turns strategy failures into AppErrors
func mapProcessingError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, detection.ErrNoScaleBar):
		return apperrors.NewNoDetectionError("no scale bar detected; add the bar manually", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.NewTimeoutError("processing timed out", err)
	default:
		return apperrors.NewProcessingError("failed to add scale bar", err)
	}
}
