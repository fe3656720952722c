package repository

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"testing"

	"go-sem-scalebar/internal/storage"
)

type stubFetcher struct {
	name  string
	err   error
	calls []string
}

func (s *stubFetcher) FetchImage(ctx context.Context, source string) (*storage.SourceImage, error) {
	s.calls = append(s.calls, source)
	if s.err != nil {
		return nil, s.err
	}
	return &storage.SourceImage{Image: image.NewGray(image.Rect(0, 0, 1, 1)), Format: "png", Name: s.name}, nil
}

func TestClassify(t *testing.T) {
	withAzure := NewSourceImageRepository(&stubFetcher{}, &stubFetcher{}, &stubFetcher{})
	noAzure := NewSourceImageRepository(&stubFetcher{}, nil, &stubFetcher{})

	tests := []struct {
		name    string
		repo    *SourceImageRepository
		source  string
		want    SourceKind
		wantErr bool
	}{
		{"http url", withAzure, "http://example.com/a.png", SourceHTTP, false},
		{"blob with azure", withAzure, "https://acct.blob.core.windows.net/c/a.png", SourceAzure, false},
		{"blob without azure", noAzure, "https://acct.blob.core.windows.net/c/a.png", SourceHTTP, false},
		{"relative path", withAzure, "scans/a.png", SourceLocal, false},
		{"file url", withAzure, "file:///tmp/a.png", SourceLocal, false},
		{"empty", withAzure, "  ", "", true},
		{"ftp", withAzure, "ftp://example.com/a.png", "", true},
		{"no host", withAzure, "http:///a.png", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.repo.Classify(tt.source)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Classify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchImage_Dispatch(t *testing.T) {
	httpF := &stubFetcher{name: "http"}
	localF := &stubFetcher{name: "local"}
	repo := NewSourceImageRepository(httpF, nil, localF)

	img, err := repo.FetchImage(context.Background(), "https://example.com/x.png")
	if err != nil || img.Name != "http" {
		t.Fatalf("FetchImage() = %+v, %v", img, err)
	}
	img, err = repo.FetchImage(context.Background(), " local.png ")
	if err != nil || img.Name != "local" {
		t.Fatalf("FetchImage() = %+v, %v", img, err)
	}
	if len(localF.calls) != 1 || localF.calls[0] != "local.png" {
		t.Errorf("Expected trimmed source passed to local fetcher, got %v", localF.calls)
	}
}

func TestFetchImage_DisabledBackend(t *testing.T) {
	repo := NewSourceImageRepository(&stubFetcher{}, nil, nil)
	_, err := repo.FetchImage(context.Background(), "local.png")
	if !errors.Is(err, ErrRepositoryUnavailable) {
		t.Errorf("Expected ErrRepositoryUnavailable, got %v", err)
	}
}

func TestFetchImage_NotFound(t *testing.T) {
	tests := []error{
		fmt.Errorf("%w: client error: status code 404", storage.ErrNotFound),
		&fs.PathError{Op: "open", Path: "x.png", Err: fs.ErrNotExist},
	}
	for _, fetchErr := range tests {
		repo := NewSourceImageRepository(&stubFetcher{err: fetchErr}, nil, &stubFetcher{err: fetchErr})
		for _, src := range []string{"https://example.com/x.png", "x.png"} {
			if _, err := repo.FetchImage(context.Background(), src); !errors.Is(err, ErrImageNotFound) {
				t.Errorf("FetchImage(%q) error = %v, want ErrImageNotFound", src, err)
			}
		}
	}

	other := errors.New("boom")
	repo := NewSourceImageRepository(&stubFetcher{err: other}, nil, nil)
	if _, err := repo.FetchImage(context.Background(), "https://example.com/x.png"); !errors.Is(err, other) {
		t.Errorf("Expected passthrough error, got %v", err)
	}
}
