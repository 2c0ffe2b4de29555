package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Buckets uploaded lesson files are written to. Each is exposed to clients
// under "/<bucket>/" by the static file server.
const (
	BucketVideos = "uploaded_videos"
	BucketTexts  = "uploaded_texts"
)

// FileStorage persists uploaded lesson files.
type FileStorage interface {
	// Save writes the content under bucket/name and returns its public path.
	Save(ctx context.Context, bucket, name string, r io.Reader) (string, error)

	// Read returns the bytes stored under bucket/name.
	Read(ctx context.Context, bucket, name string) ([]byte, error)
}

// Local implements FileStorage on the local filesystem.
type Local struct {
	basePath string
}

// NewLocal creates the bucket directories under basePath and returns a Local storage.
func NewLocal(basePath string) (*Local, error) {
	for _, bucket := range []string{BucketVideos, BucketTexts} {
		if err := os.MkdirAll(filepath.Join(basePath, bucket), 0755); err != nil {
			return nil, fmt.Errorf("could not create %s directory: %w", bucket, err)
		}
	}
	return &Local{basePath: basePath}, nil
}

// path resolves a stored file. Only the base name of name is used so uploads
// cannot escape their bucket.
func (s *Local) path(bucket, name string) (string, string, error) {
	clean := filepath.Base(filepath.Clean("/" + name))
	if clean == "/" || clean == "." || clean == "" {
		return "", "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.basePath, bucket, clean), clean, nil
}

// Save writes r to bucket/name, replacing nothing: an existing file is an error.
func (s *Local) Save(ctx context.Context, bucket, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fullPath, clean, err := s.path(bucket, name)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("could not create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(fullPath) // Clean up partial file
		return "", fmt.Errorf("could not write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("could not close file: %w", err)
	}
	return "/" + bucket + "/" + clean, nil
}

// Read returns the content of bucket/name.
func (s *Local) Read(ctx context.Context, bucket, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, _, err := s.path(bucket, name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(fullPath)
}
