package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Get when the key does not exist
var ErrNotFound = errors.New("object not found")

// Store puts and gets whole objects by key
// ⭐ SSOT: 모든 업로드/다운로드는 이 인터페이스를 통해서만 수행
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Location renders a key as a human-readable URI (s3://bucket/prefix/key)
	Location(key string) string
}

// joinKey prefixes key with prefix using forward slashes
func joinKey(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	key = strings.TrimLeft(key, "/")
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}

// LocalStore keeps objects as files under Root (used for dry runs and tests)
type LocalStore struct {
	Root   string
	Prefix string
}

// NewLocal creates a filesystem-backed store
func NewLocal(root, prefix string) *LocalStore {
	return &LocalStore{Root: root, Prefix: prefix}
}

func (s *LocalStore) filePath(key string) string {
	return filepath.Join(s.Root, filepath.FromSlash(joinKey(s.Prefix, key)))
}

// Put writes body to Root/Prefix/key
func (s *LocalStore) Put(_ context.Context, key string, body []byte, _ string) error {
	p := s.filePath(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}
	if err := os.WriteFile(p, body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Get reads Root/Prefix/key
func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.filePath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Location returns the file path of key
func (s *LocalStore) Location(key string) string {
	return s.filePath(key)
}
