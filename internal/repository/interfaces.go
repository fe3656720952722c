package repository

import (
	"context"

	"go-sem-scalebar/internal/storage"
)

// SourceKind names where an image source resolves to
type SourceKind string

const (
	SourceHTTP  SourceKind = "http"
	SourceAzure SourceKind = "azure"
	SourceLocal SourceKind = "local"
)

// ImageRepository defines the interface for image data access operations
type ImageRepository interface {
	// FetchImage retrieves and decodes an image from a URL, blob URL or local path
	FetchImage(ctx context.Context, source string) (*storage.SourceImage, error)

	// ValidateSource checks that the source is acceptable without fetching it
	ValidateSource(source string) error

	// Classify reports which backend a source would be served by
	Classify(source string) (SourceKind, error)
}
