package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/filesmanager/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var ErrOutsideRoot = errors.New("storage: path escapes root")

// LocalStorage keeps blobs as flat files under a root folder, created on first write.
type LocalStorage struct {
	fs   afero.Fs
	root string
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return NewLocalStorageFs(afero.NewOsFs(), abs), nil
}

// NewLocalStorageFs uses the given filesystem; root is used as-is.
func NewLocalStorageFs(fs afero.Fs, root string) *LocalStorage {
	return &LocalStorage{fs: fs, root: filepath.Clean(root)}
}

func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) Put(ctx context.Context, data []byte) (string, error) {
	path := filepath.Join(s.root, uuid.NewString())
	if err := s.write(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func (s *LocalStorage) PutAt(ctx context.Context, path string, data []byte) error {
	if !s.within(path) {
		return ErrOutsideRoot
	}
	return s.write(filepath.Clean(path), data)
}

func (s *LocalStorage) Get(ctx context.Context, path string) ([]byte, error) {
	if !s.within(path) {
		return nil, ErrNotFound
	}
	data, err := afero.ReadFile(s.fs, filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	if !s.within(path) {
		return ErrOutsideRoot
	}
	err := s.fs.Remove(filepath.Clean(path))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStorage) write(path string, data []byte) error {
	if err := s.fs.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("creating storage folder %s: %w", s.root, err)
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		logger.Error("blob_write_failed", err, map[string]interface{}{
			"path": path,
			"size": len(data),
		})
		return err
	}
	return nil
}

func (s *LocalStorage) within(candidate string) bool {
	candidate = filepath.Clean(candidate)
	root := s.root
	if candidate == root {
		return false
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(candidate, root)
}
