// Package filestore keeps receipt images on the local filesystem.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/splitbill/internal/storage"
)

var _ storage.ImageStore = (*FileStore)(nil)

// ErrUnsupportedImage is returned for uploads that are not JPEG, PNG or WebP.
var ErrUnsupportedImage = errors.New("unsupported image type")

// MaxImageSize bounds a single receipt upload.
const MaxImageSize = 10 << 20

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// FileStore writes images under dir and serves them from baseURL.
type FileStore struct {
	dir     string
	baseURL string
}

// New creates dir if needed.
func New(dir, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &FileStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the directory images are written to.
func (s *FileStore) Dir() string {
	return s.dir
}

// SaveReceiptImage writes data under a fresh UUID name and returns its URL.
// An empty contentType is sniffed from the data.
func (s *FileStore) SaveReceiptImage(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty upload", ErrUnsupportedImage)
	}
	if len(data) > MaxImageSize {
		return "", fmt.Errorf("%w: %d bytes exceeds limit", ErrUnsupportedImage, len(data))
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	ext, ok := extensions[strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write receipt image: %w", err)
	}
	return s.baseURL + "/" + name, nil
}
