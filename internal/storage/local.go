package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage implements Storage on the local filesystem. Files are
// served by the HTTP layer under urlPrefix.
type LocalStorage struct {
	basePath  string
	urlPrefix string
}

// NewLocalStorage creates basePath if needed.
func NewLocalStorage(basePath, urlPrefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &LocalStorage{basePath: absPath, urlPrefix: urlPrefix}, nil
}

// fullPath maps a key into basePath, rejecting keys that escape it.
func (s *LocalStorage) fullPath(key string) (string, error) {
	cleanKey := filepath.Clean("/" + key)
	path := filepath.Join(s.basePath, cleanKey)
	if !strings.HasPrefix(path, s.basePath+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return path, nil
}

// Write stores content atomically via a temp file and rename.
func (s *LocalStorage) Write(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	path, err := s.fullPath(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	path, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.urlPrefix + strings.TrimPrefix(key, "/")
}

// BasePath is the directory served under the URL prefix.
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

// URLPrefix is the path the HTTP layer serves stored files from.
func (s *LocalStorage) URLPrefix() string {
	return s.urlPrefix
}
