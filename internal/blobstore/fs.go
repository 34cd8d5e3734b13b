package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
)

// FS stores blobs as files under a root directory.
type FS struct {
	root string
}

// NewFS returns an FS rooted at dir, creating it if needed.
func NewFS(dir string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore.NewFS: %w", err)
	}
	return &FS{root: dir}, nil
}

func (s *FS) Put(_ context.Context, prefix, ext string, r io.Reader, size int64, _ string) (string, error) {
	key := randomKey(prefix, ext)
	p, err := s.path(key)
	if err != nil {
		return "", fmt.Errorf("blobstore.FS.Put: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("blobstore.FS.Put: %w", err)
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("blobstore.FS.Put: %w", err)
	}
	n, err := io.Copy(f, r)
	if err == nil && n != size {
		err = fmt.Errorf("got %d bytes, want %d", n, size)
	}
	if err != nil {
		f.Close()
		os.Remove(p)
		return "", fmt.Errorf("blobstore.FS.Put: write: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(p)
		return "", fmt.Errorf("blobstore.FS.Put: close: %w", err)
	}
	return key, nil
}

func (s *FS) Open(_ context.Context, key string) (Object, error) {
	p, err := s.path(key)
	if err != nil {
		return Object{}, fmt.Errorf("blobstore.FS.Open: %w", err)
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Object{}, fmt.Errorf("blobstore.FS.Open: %w", ErrNotFound)
		}
		return Object{}, fmt.Errorf("blobstore.FS.Open: %w", err)
	}
	ct := mime.TypeByExtension(path.Ext(key))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return Object{Body: f, ContentType: ct}, nil
}

func (s *FS) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return fmt.Errorf("blobstore.FS.Delete: %w", err)
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("blobstore.FS.Delete: %w", ErrNotFound)
		}
		return fmt.Errorf("blobstore.FS.Delete: %w", err)
	}
	return nil
}

// path maps key to a file under root, refusing keys that escape it.
func (s *FS) path(key string) (string, error) {
	local := filepath.FromSlash(key)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.root, local), nil
}
