package repository

import "errors"

var (
	// ErrInvalidSource indicates an empty or malformed image source
	ErrInvalidSource = errors.New("invalid image source")

	// ErrImageNotFound indicates the image was not found
	ErrImageNotFound = errors.New("image not found")

	// ErrRepositoryUnavailable indicates the backing store for a source is not configured
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
