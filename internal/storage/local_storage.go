package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that resolve outside the image root.
var ErrOutsideRoot = errors.New("path escapes image root")

// LocalImageFetcher reads images from files below a root directory.
type LocalImageFetcher struct {
	root string
}

// NewLocalImageFetcher creates a fetcher confined to root
func NewLocalImageFetcher(root string) *LocalImageFetcher {
	if root == "" {
		root = "."
	}
	return &LocalImageFetcher{root: root}
}

// FetchImage opens a path relative to the root. Absolute paths are accepted
// when they lie inside the root.
func (l *LocalImageFetcher) FetchImage(ctx context.Context, source string) (*SourceImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := l.resolve(source)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeImage(f, source)
}

// resolve maps source to a path inside the root. Symlinks are followed before
// the final containment check, so a link inside the root cannot point outside it.
func (l *LocalImageFetcher) resolve(source string) (string, error) {
	source = strings.TrimPrefix(source, "file://")
	root, err := filepath.Abs(l.root)
	if err != nil {
		return "", fmt.Errorf("invalid image root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("invalid image root: %w", err)
	}

	path := source
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)
	if !within(root, path) && !within(realRoot, path) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, source)
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	if !within(realRoot, resolved) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, source)
	}
	return resolved, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
