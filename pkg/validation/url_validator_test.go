package validation

import (
	"errors"
	"testing"

	apperrors "go-sem-scalebar/internal/errors"
)

func TestValidateImageURL(t *testing.T) {
	validator := NewURLValidator()

	tests := []struct {
		url         string
		wantMessage string
	}{
		{"http://example.com/grain.jpg", ""},
		{"https://acct.blob.core.windows.net/scans/run1.png", ""},
		{"HTTPS://example.com/a.png", ""},
		{"http://192.168.1.1:8080/sem.png", ""},
		{"", "URL cannot be empty"},
		{" \t\n", "URL cannot be empty"},
		{"://missing-scheme", "Invalid URL format"},
		{"not-a-url", "URL scheme not allowed"},
		{"ftp://example.com/a.png", "URL scheme not allowed"},
		{"file:///tmp/a.png", "URL scheme not allowed"},
		{"http://", "URL must have a valid host"},
		{"http:///path", "URL must have a valid host"},
	}

	for _, tt := range tests {
		err := validator.ValidateImageURL(tt.url)
		if tt.wantMessage == "" {
			if err != nil {
				t.Errorf("ValidateImageURL(%q) unexpected error: %v", tt.url, err)
			}
			continue
		}
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			t.Errorf("ValidateImageURL(%q) expected AppError, got %T", tt.url, err)
			continue
		}
		if appErr.Message != tt.wantMessage || appErr.Type != apperrors.ErrorTypeValidation {
			t.Errorf("ValidateImageURL(%q) = %q (%s), want %q", tt.url, appErr.Message, appErr.Type, tt.wantMessage)
		}
	}
}

func TestValidateImageURL_RestrictedHosts(t *testing.T) {
	validator := NewURLValidatorWithOptions([]string{"https"}, []string{"example.com", ".blob.core.windows.net"})

	for _, url := range []string{
		"https://example.com/a.png",
		"https://EXAMPLE.com:443/a.png",
		"https://acct.blob.core.windows.net/c/a.png",
	} {
		if err := validator.ValidateImageURL(url); err != nil {
			t.Errorf("Expected %q to be allowed, got %v", url, err)
		}
	}

	for _, url := range []string{
		"https://malicious.com/a.png",
		"https://notexample.com/a.png",
		"https://blob.core.windows.net.evil.io/a.png",
		"http://example.com/a.png",
	} {
		if err := validator.ValidateImageURL(url); err == nil {
			t.Errorf("Expected %q to be rejected", url)
		}
	}
}

func TestIsURL(t *testing.T) {
	tests := map[string]bool{
		"https://example.com/a.png": true,
		"http://x/y":                true,
		"file:///tmp/a.png":         false,
		"scans/a.png":               false,
		"C:\\scans\\a.png":          false,
	}
	for in, want := range tests {
		if got := IsURL(in); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", in, got, want)
		}
	}
}
