package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	defaultDirPermissions  = 0o700
	defaultFilePermissions = 0o600
)

// FileStore keeps one file per key inside a directory
type FileStore struct {
	dir   string
	ext   string
	codec Codec
	mu    sync.RWMutex
}

// NewFileStore creates the directory if needed. Files are YAML.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store directory cannot be empty")
	}
	if err := os.MkdirAll(dir, defaultDirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	return &FileStore{dir: dir, ext: ".yaml", codec: YAMLCodec{}}, nil
}

// PreferredCodec returns YAML
func (s *FileStore) PreferredCodec() Codec {
	return s.codec
}

// Path returns the file backing a key
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+s.ext)
}

// Get implements Store
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	//nolint:gosec // G304: key is sanitized and the directory is controlled
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return data, nil
}

// Put implements Store. The file is replaced atomically.
func (s *FileStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.Path(key)
	tmp, err := os.CreateTemp(s.dir, ".tmp-"+sanitizeKey(key)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close config file: %w", err)
	}
	if err := os.Chmod(tmpName, defaultFilePermissions); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, key)
}
