// Package localfs persists entity collections as JSON files on disk, one
// file per collection key. This is the default backend for single-device
// deployments.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
)

type BlobStore struct {
	basePath string
}

func New(basePath string) (*BlobStore, error) {
	if basePath == "" {
		basePath = "./data/collections"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create collections dir: %w", err)
	}
	return &BlobStore{basePath: basePath}, nil
}

func (s *BlobStore) Read(_ context.Context, key string) ([]byte, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "read collection "+key, err)
		}
		return nil, fmt.Errorf("read collection %s: %w", key, err)
	}
	return blob, nil
}

// Write replaces the collection file atomically: the blob lands in a
// temp file first so a crash mid-write never truncates the live copy.
func (s *BlobStore) Write(_ context.Context, key string, blob []byte) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return fmt.Errorf("write collection %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace collection %s: %w", key, err)
	}
	return nil
}

func (s *BlobStore) pathFor(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid collection key %q", key)
	}
	return filepath.Join(s.basePath, key+".json"), nil
}
