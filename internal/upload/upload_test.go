package upload

import (
	"mime/multipart"
	"strings"
	"testing"
)

func header(name string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: size}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		files   []*multipart.FileHeader
		wantErr string
	}{
		{
			name:  "valid set",
			files: []*multipart.FileHeader{header("a.png", 1024), header("b.JPG", 1024), header("c.webp", 2 * 1024 * 1024)},
		},
		{
			name:    "oversized file",
			files:   []*multipart.FileHeader{header("big.png", 3 * 1024 * 1024)},
			wantErr: "2MB",
		},
		{
			name:    "wrong type",
			files:   []*multipart.FileHeader{header("doc.pdf", 1024)},
			wantErr: "image files",
		},
		{
			name:    "no extension",
			files:   []*multipart.FileHeader{header("payload", 1024)},
			wantErr: "image files",
		},
		{
			name: "too many files",
			files: []*multipart.FileHeader{
				header("a.png", 1), header("b.png", 1), header("c.png", 1),
				header("d.png", 1), header("e.png", 1),
			},
			wantErr: "at most 4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.files)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewStoreCreatesDir(t *testing.T) {
	dir := t.TempDir() + "/nested/uploads"
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if store.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", store.Dir(), dir)
	}
}
