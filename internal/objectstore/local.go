package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes media under a directory on disk and returns server-local
// /api/file URLs. It is the fallback when no bucket is configured.
type LocalStore struct {
	dir string
}

var _ ObjectStore = (*LocalStore)(nil)

// NewLocal ensures dir exists and returns a store rooted there.
func NewLocal(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Upload(ctx context.Context, owner string, data []byte, filename, contentType string) (string, error) {
	// Owner directories keep listings small; the filename is already unique.
	dir := filepath.Join(s.dir, sanitize(owner))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create owner dir: %w", err)
	}
	name := sanitize(filename)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return "/api/file/" + sanitize(owner) + "/" + name, nil
}

func (s *LocalStore) Delete(ctx context.Context, objectPath string) error {
	objectPath = strings.TrimPrefix(objectPath, "/api/file/")
	full := filepath.Join(s.dir, filepath.FromSlash(sanitizePath(objectPath)))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete media file: %w", err)
	}
	return nil
}

// Dir returns the root directory, for serving files over HTTP.
func (s *LocalStore) Dir() string { return s.dir }

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "..", "_")
	if s == "" {
		return "_"
	}
	return s
}

func sanitizePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = sanitize(part)
	}
	return strings.Join(parts, "/")
}
