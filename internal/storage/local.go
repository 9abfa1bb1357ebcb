package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// LocalStorage stores artifacts on the local filesystem under a root
// directory. This is the default backend: the pipeline's artifacts are
// plain CSV files meant to be picked up by analysis notebooks.
type LocalStorage struct {
	root string
}

// Ensure LocalStorage implements StorageInterface
var _ StorageInterface = (*LocalStorage)(nil)

// NewLocalStorage creates a filesystem-backed storage rooted at dir.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage root directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", dir, err)
	}
	return &LocalStorage{root: dir}, nil
}

func (s *LocalStorage) path(filename string) string {
	return filepath.Join(s.root, filepath.FromSlash(filename))
}

// Store writes data to the given key, creating parent directories as
// needed.
func (s *LocalStorage) Store(filename string, data []byte) error {
	path := s.path(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", filename, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	logrus.Debugf("Stored %s (%d bytes)", filename, len(data))
	return nil
}

// Retrieve reads the data stored under the given key.
func (s *LocalStorage) Retrieve(filename string) ([]byte, error) {
	data, err := os.ReadFile(s.path(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return data, nil
}

// List returns every stored key starting with prefix, in lexical order.
func (s *LocalStorage) List(prefix string) ([]string, error) {
	var keys []string
	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	return keys, nil
}

// Delete removes the data stored under the given key.
func (s *LocalStorage) Delete(filename string) error {
	if err := os.Remove(s.path(filename)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", filename, err)
	}
	return nil
}
