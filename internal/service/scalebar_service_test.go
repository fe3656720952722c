package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go-sem-scalebar/internal/detection"
	apperrors "go-sem-scalebar/internal/errors"
	"go-sem-scalebar/internal/fonts"
	"go-sem-scalebar/internal/observer"
	"go-sem-scalebar/internal/overlay"
	"go-sem-scalebar/internal/repository"
	"go-sem-scalebar/internal/storage"
	"go-sem-scalebar/internal/strategy"
)

// grayPNGHeader is a PNG signature plus IHDR declaring w x h, with no pixel data.
func grayPNGHeader(w, h uint32) []byte {
	ihdr := []byte("IHDR")
	ihdr = binary.BigEndian.AppendUint32(ihdr, w)
	ihdr = binary.BigEndian.AppendUint32(ihdr, h)
	ihdr = append(ihdr, 8, 0, 0, 0, 0)

	out := []byte("\x89PNG\r\n\x1a\n")
	out = binary.BigEndian.AppendUint32(out, 13)
	out = append(out, ihdr...)
	return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(ihdr))
}

type fakeDetector struct {
	bar detection.BarDetection
	err error
}

func (f *fakeDetector) DetectBar(ctx context.Context, img image.Image) (detection.BarDetection, error) {
	return f.bar, f.err
}

type fakeReader struct {
	text string
	err  error
}

func (f *fakeReader) ReadText(ctx context.Context, img image.Image) (string, error) {
	return f.text, f.err
}

type stubRepo struct {
	img *storage.SourceImage
	err error
}

func (r *stubRepo) FetchImage(ctx context.Context, source string) (*storage.SourceImage, error) {
	return r.img, r.err
}
func (r *stubRepo) ValidateSource(source string) error { return nil }
func (r *stubRepo) Classify(source string) (repository.SourceKind, error) {
	return repository.SourceLocal, nil
}

type fixedFont string

func (f fixedFont) ResolvePath() string { return string(f) }

func encodedImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestService(det detection.BarDetector, reader detection.TextReader, repo repository.ImageRepository, metrics *observer.MetricsObserver, fontDirs ...string) ScaleBarService {
	table := overlay.DefaultMagnifications()
	o := overlay.NewOverlayer(table, fonts.NewResolver(nil))
	detected := strategy.NewDetectedStrategy(o, det, reader, "100 µm")

	publisher := observer.NewEventPublisher()
	if metrics != nil {
		publisher.Subscribe(metrics)
	}

	return NewScaleBarService(Config{
		Repository: repo,
		Strategies: strategy.NewStrategyContext(strategy.NewMagnificationStrategy(o), detected),
		Detected:   detected,
		Table:      table,
		Fonts:      fixedFont("/fonts/DejaVuSans.ttf"),
		FontDirs:   fontDirs,
		Publisher:  publisher,
	})
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	return img
}

func TestAddScaleBar_Upload(t *testing.T) {
	metrics := observer.NewMetricsObserver()
	svc := newTestService(&fakeDetector{}, &fakeReader{}, nil, metrics)

	out, err := svc.AddScaleBar(context.Background(), ScaleBarInput{
		ImageInput:    ImageInput{Data: encodedImage(t, 1000, 800), Filename: "sample.jpg"},
		Magnification: "7k",
	})
	if err != nil {
		t.Fatalf("AddScaleBar() error = %v", err)
	}
	if out.Filename != "sample_edited.png" || !out.Applied || out.Label != "3 µm" {
		t.Errorf("Unexpected result: filename=%q applied=%v label=%q", out.Filename, out.Applied, out.Label)
	}
	want := overlay.Geometry{StartX: 750, StartY: 736, LengthPx: 220, FontSizePx: 50, TextX: 860, TextY: 676}
	if out.Geometry != want {
		t.Errorf("Geometry = %+v, want %+v", out.Geometry, want)
	}

	img := decodePNG(t, out.PNG)
	if r, _, _, _ := img.At(800, 736).RGBA(); r>>8 != 255 {
		t.Error("Expected white bar pixel in encoded output")
	}

	m := metrics.GetMetrics()
	if m.TotalRenders != 1 || m.SuccessfulRenders != 1 || m.RendersByVariant[strategy.MagnificationName] != 1 {
		t.Errorf("Unexpected metrics: %+v", m)
	}
}

func TestAddScaleBar_UnknownMagnificationUnchanged(t *testing.T) {
	svc := newTestService(&fakeDetector{}, &fakeReader{}, nil, nil)

	out, err := svc.AddScaleBar(context.Background(), ScaleBarInput{
		ImageInput:    ImageInput{Data: encodedImage(t, 40, 30), Filename: "x.png"},
		Magnification: "3x",
	})
	if err != nil {
		t.Fatalf("AddScaleBar() error = %v", err)
	}
	if out.Applied {
		t.Error("Expected unknown magnification not to apply")
	}
	img := decodePNG(t, out.PNG)
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			if r, g, b, _ := img.At(x, y).RGBA(); r|g|b != 0 {
				t.Fatalf("Expected untouched black image, found pixel at (%d,%d)", x, y)
			}
		}
	}
}

func TestAddScaleBar_InputErrors(t *testing.T) {
	svc := newTestService(&fakeDetector{}, &fakeReader{}, &stubRepo{err: repository.ErrImageNotFound}, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		input    ScaleBarInput
		wantType apperrors.ErrorType
	}{
		{"no image", ScaleBarInput{Magnification: "7k"}, apperrors.ErrorTypeValidation},
		{"no magnification", ScaleBarInput{ImageInput: ImageInput{Data: []byte("x")}}, apperrors.ErrorTypeValidation},
		{"not an image", ScaleBarInput{ImageInput: ImageInput{Data: []byte("GIF89a....")}, Magnification: "7k"}, apperrors.ErrorTypeValidation},
		{"bad url", ScaleBarInput{ImageInput: ImageInput{Source: "ftp://host/a.png"}, Magnification: "7k"}, apperrors.ErrorTypeValidation},
		{"missing source", ScaleBarInput{ImageInput: ImageInput{Source: "https://example.com/a.png"}, Magnification: "7k"}, apperrors.ErrorTypeNotFound},
		{"pixel count over limit", ScaleBarInput{ImageInput: ImageInput{Data: grayPNGHeader(20000, 20000), Filename: "huge.png"}, Magnification: "7k"}, apperrors.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddScaleBar(ctx, tt.input)
			if !apperrors.IsType(err, tt.wantType) {
				t.Errorf("AddScaleBar() error = %v, want type %s", err, tt.wantType)
			}
		})
	}
}

func TestAddScaleBar_FromLocalRepository(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "grain.png"), encodedImage(t, 200, 100), 0o644); err != nil {
		t.Fatal(err)
	}
	repo := repository.NewSourceImageRepository(nil, nil, storage.NewLocalImageFetcher(root))
	svc := newTestService(&fakeDetector{}, &fakeReader{}, repo, nil)

	out, err := svc.AddScaleBar(context.Background(), ScaleBarInput{
		ImageInput:    ImageInput{Source: "grain.png"},
		Magnification: "1k",
	})
	if err != nil {
		t.Fatalf("AddScaleBar() error = %v", err)
	}
	if out.Filename != "grain_edited.png" || out.Geometry.LengthPx != 40 {
		t.Errorf("Unexpected result: %q %+v", out.Filename, out.Geometry)
	}
}

func TestAddScaleBar_LocalSourceOutsideRoot(t *testing.T) {
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret.png"), encodedImage(t, 20, 20), 0o644); err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()
	if err := os.Symlink(filepath.Join(outside, "secret.png"), filepath.Join(root, "link.png")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	repo := repository.NewSourceImageRepository(nil, nil, storage.NewLocalImageFetcher(root))
	svc := newTestService(&fakeDetector{}, &fakeReader{}, repo, nil)

	for _, source := range []string{"link.png", "../secret.png", filepath.Join(outside, "secret.png")} {
		_, err := svc.AddScaleBar(context.Background(), ScaleBarInput{
			ImageInput:    ImageInput{Source: source},
			Magnification: "7k",
		})
		if !apperrors.IsType(err, apperrors.ErrorTypeValidation) || !errors.Is(err, storage.ErrOutsideRoot) {
			t.Errorf("AddScaleBar(%q) error = %v, want validation error for path outside root", source, err)
		}
	}
}

func TestAddDetectedScaleBar(t *testing.T) {
	metrics := observer.NewMetricsObserver()
	det := &fakeDetector{bar: detection.BarDetection{Bounds: image.Rect(10, 20, 100, 30)}}
	svc := newTestService(det, &fakeReader{text: ""}, nil, metrics)

	out, err := svc.AddDetectedScaleBar(context.Background(), ScaleBarInput{
		ImageInput: ImageInput{Data: encodedImage(t, 400, 200), Filename: "scan.png"},
	})
	if err != nil {
		t.Fatalf("AddDetectedScaleBar() error = %v", err)
	}
	if out.Label != "100 µm" || out.Reading == nil || !out.Reading.DefaultUsed {
		t.Errorf("Expected default label, got %q %+v", out.Label, out.Reading)
	}
	if out.Geometry.StartX != 340 || out.Geometry.StartY != 190 || out.Geometry.LengthPx != 30 {
		t.Errorf("Unexpected geometry %+v", out.Geometry)
	}
	if metrics.GetMetrics().DetectionFailures != 0 {
		t.Error("Empty OCR text is not a detection failure")
	}
}

func TestAddDetectedScaleBar_NoScaleBar(t *testing.T) {
	metrics := observer.NewMetricsObserver()
	svc := newTestService(&fakeDetector{err: detection.ErrNoScaleBar}, &fakeReader{}, nil, metrics)

	_, err := svc.AddDetectedScaleBar(context.Background(), ScaleBarInput{
		ImageInput: ImageInput{Data: encodedImage(t, 50, 50), Filename: "flat.png"},
	})
	if !apperrors.IsType(err, apperrors.ErrorTypeNoDetection) || apperrors.GetStatusCode(err) != 422 {
		t.Fatalf("Expected no_detection 422, got %v", err)
	}
	if !errors.Is(err, detection.ErrNoScaleBar) {
		t.Error("Expected ErrNoScaleBar in the error chain")
	}

	m := metrics.GetMetrics()
	if m.FailedRenders != 1 || m.DetectionFailures != 1 {
		t.Errorf("Unexpected metrics: %+v", m)
	}
}

func TestAddDetectedScaleBar_InvalidLabel(t *testing.T) {
	svc := newTestService(&fakeDetector{}, &fakeReader{}, nil, nil)
	_, err := svc.AddDetectedScaleBar(context.Background(), ScaleBarInput{
		ImageInput: ImageInput{Data: encodedImage(t, 10, 10)},
		Label:      "bad\x07label",
	})
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestDetectLabel(t *testing.T) {
	tests := []struct {
		name        string
		det         *fakeDetector
		reader      *fakeReader
		wantLabel   string
		wantBar     bool
		wantOCRErr  bool
		wantFailure int64
	}{
		{
			name:      "snapped label and bar",
			det:       &fakeDetector{bar: detection.BarDetection{Bounds: image.Rect(5, 6, 45, 9)}},
			reader:    &fakeReader{text: "1um"},
			wantLabel: "1 µm",
			wantBar:   true,
		},
		{
			name:        "bar missing is reported, not fatal",
			det:         &fakeDetector{err: detection.ErrNoScaleBar},
			reader:      &fakeReader{text: "20 µm"},
			wantLabel:   "20 µm",
			wantFailure: 1,
		},
		{
			name:        "OCR failure leaves label empty",
			det:         &fakeDetector{bar: detection.BarDetection{Bounds: image.Rect(0, 0, 3, 3)}},
			reader:      &fakeReader{err: errors.New("engine unavailable")},
			wantBar:     true,
			wantOCRErr:  true,
			wantFailure: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := observer.NewMetricsObserver()
			svc := newTestService(tt.det, tt.reader, nil, metrics)

			resp, err := svc.DetectLabel(context.Background(), ImageInput{Data: encodedImage(t, 60, 40), Filename: "a.png"})
			if err != nil {
				t.Fatalf("DetectLabel() error = %v", err)
			}
			if resp.Label != tt.wantLabel || (resp.Bar != nil) != tt.wantBar || (resp.OCRError != "") != tt.wantOCRErr {
				t.Errorf("Unexpected response %+v", resp)
			}
			if resp.Bar != nil && resp.Bar.Width != tt.det.bar.Bounds.Dx() {
				t.Errorf("Bar width = %d, want %d", resp.Bar.Width, tt.det.bar.Bounds.Dx())
			}
			if got := metrics.GetMetrics().DetectionFailures; got != tt.wantFailure {
				t.Errorf("DetectionFailures = %d, want %d", got, tt.wantFailure)
			}
		})
	}
}

func TestListFontsAndMagnifications(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.ttf", "a.otf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	svc := newTestService(&fakeDetector{}, &fakeReader{}, nil, nil, filepath.Join(dir, "missing"), dir)

	resp := svc.ListFonts(context.Background())
	if resp.Count != 2 || resp.Fonts[0] != filepath.Join(dir, "a.otf") || resp.ActiveFont != "/fonts/DejaVuSans.ttf" {
		t.Errorf("Unexpected font list %+v", resp)
	}

	mags := svc.Magnifications()
	if len(mags) != 3 || mags[1].Label != "7k" || mags[1].Ratio != 0.22 || mags[1].Text != "3 µm" {
		t.Errorf("Unexpected magnifications %+v", mags)
	}
}
