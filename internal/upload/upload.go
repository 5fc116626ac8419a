// Package upload stores multipart image uploads on disk and serves the
// validation rules for them: at most 4 files per request, 2MB each, image
// extensions only. Saved files are never deleted.
package upload

import (
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// MaxFileSize is the per-file upload cap.
	MaxFileSize = 2 * 1024 * 1024
	// MaxFiles is the most images a single poll may attach.
	MaxFiles = 4
)

// allowed image extensions, matching the original dashboard's accept list.
var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Store saves validated image uploads under a base directory.
type Store struct {
	dir string
}

// NewStore creates the uploads directory if needed and returns a Store over it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create uploads directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the base directory files are saved into.
func (s *Store) Dir() string {
	return s.dir
}

// Validate checks a set of multipart file headers against the upload rules.
func Validate(files []*multipart.FileHeader) error {
	if len(files) > MaxFiles {
		return fmt.Errorf("at most %d images are allowed", MaxFiles)
	}
	for _, fh := range files {
		if fh.Size > MaxFileSize {
			return fmt.Errorf("file %q exceeds the 2MB size limit", fh.Filename)
		}
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !allowedExtensions[ext] {
			return fmt.Errorf("only image files are allowed (jpeg, jpg, png, gif, webp)")
		}
	}
	return nil
}

// Save validates and writes a single upload to disk, returning the generated
// filename. Filenames are field-timestamp-randomsuffix to avoid collisions.
func (s *Store) Save(field string, fh *multipart.FileHeader) (string, error) {
	if err := Validate([]*multipart.FileHeader{fh}); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("could not open upload: %w", err)
	}
	defer src.Close()

	name := fmt.Sprintf("%s-%d-%09d%s",
		field, time.Now().UnixMilli(), rand.Intn(1_000_000_000), strings.ToLower(filepath.Ext(fh.Filename)))

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("could not create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("could not write upload file: %w", err)
	}
	return name, nil
}
