// Package local keeps objects as files under a base directory.
//
// All file access goes through an os.Root, so neither ".." segments nor
// symlinks can reach outside the directory. Uploads are written to a
// temporary file and renamed into place, so a reader never sees half a
// photo.
package local

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kbukum/invoicer/logger"
	"github.com/kbukum/invoicer/storage"
)

func init() {
	storage.Register(storage.ProviderLocal, func(_ context.Context, cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		s, err := NewStorage(cfg.BasePath)
		if err != nil {
			return nil, err
		}
		log.Debug("Local storage opened", map[string]interface{}{"path": s.dir})
		return s, nil
	})
}

// Storage is a storage.Storage on the local filesystem.
type Storage struct {
	dir  string
	root *os.Root
}

var (
	_ storage.Storage = (*Storage)(nil)
	_ storage.Pinger  = (*Storage)(nil)
)

// NewStorage creates dir if needed and opens it as the object root.
func NewStorage(dir string) (*Storage, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return &Storage{dir: abs, root: root}, nil
}

// Close releases the directory handle.
func (s *Storage) Close() error { return s.root.Close() }

// name turns an object path into a name relative to the root. Leading
// slashes and ".." segments are folded away, so "../../a" is "a".
func name(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func (s *Storage) Upload(_ context.Context, p string, r io.Reader) error {
	n := name(p)
	if n == "" {
		return fmt.Errorf("storage: empty path %q", p)
	}
	if dir := path.Dir(n); dir != "." {
		if err := s.root.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}

	tmp := fmt.Sprintf("%s.%s.tmp", n, rand.Text()[:8])
	f, err := s.root.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	_, err = io.Copy(f, r)
	err = errors.Join(err, f.Close())
	if err == nil {
		err = s.root.Rename(tmp, n)
	}
	if err != nil {
		_ = s.root.Remove(tmp)
		return fmt.Errorf("storage: write %s: %w", p, err)
	}
	return nil
}

func (s *Storage) Download(_ context.Context, p string) (io.ReadCloser, error) {
	f, err := s.root.Open(name(p))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, p)
	case err != nil:
		return nil, fmt.Errorf("storage: %w", err)
	}
	return f, nil
}

func (s *Storage) Delete(_ context.Context, p string) error {
	if err := s.root.Remove(name(p)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

// Exists is false for directories; only files are objects.
func (s *Storage) Exists(_ context.Context, p string) (bool, error) {
	info, err := s.root.Stat(name(p))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("storage: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// Ping checks the base directory by path, catching a directory that was
// removed or replaced after it was opened.
func (s *Storage) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage: %s is not a directory", s.dir)
	}
	return nil
}
