package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalProvider writes files on the local filesystem. Keys are resolved
// against basePath; an empty basePath uses keys as given.
type LocalProvider struct {
	basePath string
}

func NewLocalProvider(basePath string) *LocalProvider {
	return &LocalProvider{
		basePath: basePath,
	}
}

func (p *LocalProvider) path(key string) string {
	if p.basePath == "" || filepath.IsAbs(key) {
		return key
	}
	return filepath.Join(p.basePath, key)
}

func (p *LocalProvider) Create(_ context.Context, key, _ string) (io.WriteCloser, error) {
	fullPath := p.path(key)

	// Ensure subdirectories exist if key contains them
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}

	return &localWriter{f: f, path: fullPath}, nil
}

func (p *LocalProvider) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return os.Open(p.path(key))
}

func (p *LocalProvider) URL(key string) string {
	abs, err := filepath.Abs(p.path(key))
	if err != nil {
		abs = p.path(key)
	}
	return "file://" + filepath.ToSlash(abs)
}

type localWriter struct {
	f    *os.File
	path string
}

func (w *localWriter) Write(p []byte) (n int, err error) {
	return w.f.Write(p)
}

func (w *localWriter) Close() error {
	if err := w.f.Close(); err != nil {
		return err
	}
	slog.Debug("Local file write completed", "path", w.path)
	return nil
}
