package transfer_test

import (
	"errors"
	"testing"

	"ferry/internal/objectstore"
	"ferry/internal/transfer"
)

func TestPolicyValidate(t *testing.T) {
	policy := transfer.Policy{
		AllowedTypes: []string{"application/pdf", "image/*", "text/markdown"},
		MaxSizeBytes: 10 << 20,
	}

	cases := []struct {
		name     string
		fileName string
		mimeType string
		size     int64
		wantErr  bool
	}{
		{"pdf accepted", "guide.pdf", "application/pdf", 1 << 20, false},
		{"wildcard image accepted", "diagram.png", "image/png", 512, false},
		{"zero byte accepted", "empty.md", "text/markdown", 0, false},
		{"case insensitive type", "guide.pdf", "Application/PDF", 1024, false},
		{"empty file name", "", "application/pdf", 1024, true},
		{"negative size", "guide.pdf", "application/pdf", -1, true},
		{"over size limit", "huge.pdf", "application/pdf", 11 << 20, true},
		{"disallowed type", "movie.mp4", "video/mp4", 1024, true},
		{"empty mime type", "guide.pdf", "", 1024, true},
		{"wildcard does not match prefix", "app.bin", "imagemagick/config", 1024, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.Validate(tc.fileName, tc.mimeType, tc.size)
			if tc.wantErr {
				if !errors.Is(err, objectstore.ErrValidation) {
					t.Fatalf("got %v, want validation error", err)
				}
				if objectstore.IsRetryable(err) {
					t.Fatal("validation failures must not be retryable")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPolicyUnlimitedSize(t *testing.T) {
	policy := transfer.Policy{AllowedTypes: []string{"application/pdf"}}
	if err := policy.Validate("big.pdf", "application/pdf", 1<<40); err != nil {
		t.Fatalf("unexpected error with no size cap: %v", err)
	}
}
