package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// PublicPrefix is the URL prefix under which stored uploads are served
const PublicPrefix = "/uploads/"

var ErrFileTooLarge = errors.New("file too large")

// UploadStore writes uploaded files to a local directory
type UploadStore struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewUploadStore creates dir if needed
func NewUploadStore(dir string, maxBytes int64) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadStore{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

func (s *UploadStore) Dir() string {
	return s.dir
}

// CheckSizes rejects the batch if any file exceeds the per-file limit
func (s *UploadStore) CheckSizes(files []*multipart.FileHeader) error {
	for _, fh := range files {
		if fh.Size > s.maxBytes {
			return fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, fh.Filename, s.maxBytes)
		}
	}
	return nil
}

// Save stores one file and returns its public path
func (s *UploadStore) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := s.fileName(fh.Filename)
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}

	n, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.maxBytes {
		err = fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, fh.Filename, s.maxBytes)
	}
	if err != nil {
		os.Remove(filepath.Join(s.dir, name))
		return "", err
	}
	return PublicPrefix + name, nil
}

// SaveAll stores files in order and returns their public paths. Files
// already written stay on disk when a later one fails.
func (s *UploadStore) SaveAll(files []*multipart.FileHeader) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, fh := range files {
		p, err := s.Save(fh)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// fileName is <unix-ms>-<random below 1e9><original extension>
func (s *UploadStore) fileName(original string) string {
	id := uuid.New()
	suffix := binary.BigEndian.Uint32(id[:4]) % 1_000_000_000
	return fmt.Sprintf("%d-%d%s", s.now().UnixMilli(), suffix, filepath.Ext(original))
}
