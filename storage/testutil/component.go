// Package testutil provides an in-memory storage backend for tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/kbukum/invoicer/storage"
	"github.com/kbukum/invoicer/testutil"
)

type bucket struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// Component keeps objects in a map. Storage calls made before Start fail.
type Component struct {
	*testutil.Resource[*bucket]
}

var _ storage.Storage = (*Component)(nil)

func NewComponent() *Component {
	return &Component{testutil.NewResource("storage-test", testutil.Hooks[*bucket]{
		Open: func(context.Context) (*bucket, error) {
			return &bucket{objects: map[string][]byte{}}, nil
		},
		Reset: func(_ context.Context, b *bucket) error {
			b.mu.Lock()
			defer b.mu.Unlock()
			clear(b.objects)
			return nil
		},
	})}
}

func (c *Component) bucket() (*bucket, error) {
	b, ok := c.Get()
	if !ok {
		return nil, testutil.ErrNotStarted
	}
	return b, nil
}

// Paths lists stored paths under prefix in sorted order.
func (c *Component) Paths(prefix string) []string {
	b, err := c.bucket()
	if err != nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []string
	for _, p := range slices.Sorted(maps.Keys(b.objects)) {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}

func (c *Component) Upload(_ context.Context, path string, r io.Reader) error {
	b, err := c.bucket()
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[path] = data
	return nil
}

func (c *Component) Download(_ context.Context, path string) (io.ReadCloser, error) {
	b, err := c.bucket()
	if err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (c *Component) Delete(_ context.Context, path string) error {
	b, err := c.bucket()
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, path)
	return nil
}

func (c *Component) Exists(_ context.Context, path string) (bool, error) {
	b, err := c.bucket()
	if err != nil {
		return false, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.objects[path]
	return ok, nil
}
