package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"go-sem-scalebar/internal/storage"
)

// SourceImageRepository implements ImageRepository on top of per-kind fetchers.
// A nil fetcher disables that kind of source.
type SourceImageRepository struct {
	http  storage.ImageFetcher
	azure storage.ImageFetcher
	local storage.ImageFetcher
}

// NewSourceImageRepository creates a repository; any fetcher may be nil
func NewSourceImageRepository(httpFetcher, azureFetcher, localFetcher storage.ImageFetcher) *SourceImageRepository {
	return &SourceImageRepository{
		http:  httpFetcher,
		azure: azureFetcher,
		local: localFetcher,
	}
}

// Classify maps a source onto a backend. Blob URLs go to Azure only when it is
// configured, otherwise they are fetched like any other HTTPS URL.
func (r *SourceImageRepository) Classify(source string) (SourceKind, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", ErrInvalidSource
	}

	if strings.Contains(source, "://") && !strings.HasPrefix(source, "file://") {
		u, err := url.Parse(source)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("%w: %s", ErrInvalidSource, source)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
		default:
			return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidSource, u.Scheme)
		}
		if storage.IsBlobURL(source) && r.azure != nil {
			return SourceAzure, nil
		}
		return SourceHTTP, nil
	}
	return SourceLocal, nil
}

// ValidateSource checks the source form and that its backend is configured
func (r *SourceImageRepository) ValidateSource(source string) error {
	kind, err := r.Classify(source)
	if err != nil {
		return err
	}
	if r.fetcherFor(kind) == nil {
		return fmt.Errorf("%w: %s sources are disabled", ErrRepositoryUnavailable, kind)
	}
	return nil
}

// FetchImage retrieves an image through the backend for its source kind
func (r *SourceImageRepository) FetchImage(ctx context.Context, source string) (*storage.SourceImage, error) {
	if err := r.ValidateSource(source); err != nil {
		return nil, err
	}
	kind, _ := r.Classify(source)

	img, err := r.fetcherFor(kind).FetchImage(ctx, strings.TrimSpace(source))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, source)
		}
		return nil, err
	}
	return img, nil
}

func (r *SourceImageRepository) fetcherFor(kind SourceKind) storage.ImageFetcher {
	switch kind {
	case SourceHTTP:
		return r.http
	case SourceAzure:
		return r.azure
	case SourceLocal:
		return r.local
	}
	return nil
}
