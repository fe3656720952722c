package fonts

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestResolve_FirstExistingCandidate(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.ttf")
	broken := writeFile(t, filepath.Join(dir, "broken.ttf"), []byte("not a font"))
	first := writeFile(t, filepath.Join(dir, "first.ttf"), goregular.TTF)
	second := writeFile(t, filepath.Join(dir, "second.ttf"), goregular.TTF)

	r := NewResolver([]string{missing, broken, first, second})

	face, ok := r.Resolve(40).(*Face)
	if !ok {
		t.Fatal("Expected *Face from Resolve")
	}
	if face.Path != first {
		t.Errorf("Path = %q, want %q", face.Path, first)
	}
	if r.ResolvePath() != first {
		t.Errorf("ResolvePath() = %q, want %q", r.ResolvePath(), first)
	}

	if h := face.Metrics().Height.Ceil(); h < 40 {
		t.Errorf("Expected face height to follow the requested size, got %d", h)
	}
	if !face.HasGlyph('A') || !face.HasGlyph('µ') {
		t.Error("Expected Go Regular to cover ASCII and the micro sign")
	}
	if face.HasGlyph('一') {
		t.Error("Expected CJK glyph to be missing from Go Regular")
	}
}

func TestResolve_AllMissingFallsBack(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver([]string{filepath.Join(dir, "a.ttf"), filepath.Join(dir, "b.otf")})

	face, ok := r.Resolve(50).(*Face)
	if !ok {
		t.Fatal("Expected *Face from Resolve")
	}
	if face.Path != "" {
		t.Errorf("Path = %q, want built-in", face.Path)
	}
	if face.Face != basicfont.Face7x13 {
		t.Error("Expected the built-in 7x13 face")
	}
	if face.HasGlyph('µ') || !face.HasGlyph('m') {
		t.Error("Expected built-in face to cover ASCII only")
	}
	if r.ResolvePath() != "" {
		t.Error("Expected empty ResolvePath without usable fonts")
	}
}

func TestResolve_CandidateRemovedAfterCaching(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "font.ttf"), goregular.TTF)
	r := NewResolver([]string{path})

	if r.ResolvePath() != path {
		t.Fatal("Expected font to resolve")
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	// Parsed fonts stay cached for the life of the resolver
	if face := r.Resolve(12).(*Face); face.Path != path {
		t.Errorf("Path = %q, want cached %q", face.Path, path)
	}
}

func TestResolve_NonPositiveSize(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "font.ttf"), goregular.TTF)

	face := NewResolver([]string{path}).Resolve(0).(*Face)
	if face.Path != path {
		t.Errorf("Expected size 0 to be clamped, not rejected; got path %q", face.Path)
	}
}

func TestCandidates_Copy(t *testing.T) {
	paths := []string{"/a.ttf", "/b.ttf"}
	r := NewResolver(paths)
	paths[0] = "/changed.ttf"

	got := r.Candidates()
	if !reflect.DeepEqual(got, []string{"/a.ttf", "/b.ttf"}) {
		t.Errorf("Candidates() = %v", got)
	}
}

func TestListFontFiles(t *testing.T) {
	root := t.TempDir()
	dirA := filepath.Join(root, "a")
	dirB := filepath.Join(root, "b")
	for _, d := range []string{dirA, dirB, filepath.Join(dirA, "nested")} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	writeFile(t, filepath.Join(dirA, "z.ttf"), nil)
	writeFile(t, filepath.Join(dirA, "a.ttf"), nil)
	writeFile(t, filepath.Join(dirA, "nested", "deep.ttf"), nil)
	writeFile(t, filepath.Join(dirB, "m.otf"), nil)

	got := ListFontFiles([]string{dirB, filepath.Join(root, "missing"), dirA})
	want := []string{
		filepath.Join(dirB, "m.otf"),
		filepath.Join(dirA, "a.ttf"),
		filepath.Join(dirA, "nested"),
		filepath.Join(dirA, "z.ttf"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListFontFiles() = %v, want %v", got, want)
	}
}

func TestListFontFiles_NothingFound(t *testing.T) {
	root := t.TempDir()
	got := ListFontFiles([]string{filepath.Join(root, "x"), filepath.Join(root, "y")})
	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", got)
	}
	if got := ListFontFiles(nil); got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice for no dirs, got %#v", got)
	}
}
