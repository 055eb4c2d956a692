package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/plateful/backend/internal/config"
)

// UploadService stores multipart image uploads (post photos, avatars) on
// local disk under random filenames.
type UploadService struct {
	dir      string
	maxBytes int64
}

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

func NewUploadService(cfg *config.UploadConfig) (*UploadService, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &UploadService{
		dir:      cfg.Dir,
		maxBytes: cfg.MaxSizeMB * 1024 * 1024,
	}, nil
}

// Dir returns the directory uploads are stored in.
func (s *UploadService) Dir() string {
	return s.dir
}

// SaveImage validates and stores one uploaded image, returning the stored
// filename. The original filename is discarded; only its extension survives.
func (s *UploadService) SaveImage(fh *multipart.FileHeader) (string, error) {
	if fh.Size > s.maxBytes {
		return "", fmt.Errorf("file too large: %d bytes (max %d)", fh.Size, s.maxBytes)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExts[ext] {
		return "", fmt.Errorf("unsupported image type: %q", ext)
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}

	return name, nil
}
