package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/kbukum/invoicer/logger"
)

// ErrNotFound is wrapped by Download when nothing is stored at the path.
var ErrNotFound = errors.New("storage: object not found")

// Storage is a flat key space of binary objects. Paths use forward slashes.
type Storage interface {
	// Upload replaces whatever is stored at path.
	Upload(ctx context.Context, path string, r io.Reader) error
	// Download's reader must be closed by the caller.
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete of a missing object succeeds.
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

// Pinger is implemented by backends that can check reachability without
// touching an object.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Opener builds a backend from the storage section.
type Opener func(ctx context.Context, cfg Config, log *logger.Logger) (Storage, error)

var (
	openersMu sync.RWMutex
	openers   = map[string]Opener{}
)

// Register makes a backend available under provider. Backend packages call
// it from init; registering a name twice panics.
func Register(provider string, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	if _, dup := openers[provider]; dup {
		panic("storage: Register called twice for " + provider)
	}
	openers[provider] = open
}

// Open validates cfg and opens the backend it selects.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	openersMu.RLock()
	open, ok := openers[cfg.Provider]
	registered := slices.Sorted(maps.Keys(openers))
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: provider %q not registered (have %v)", cfg.Provider, registered)
	}
	return open(ctx, cfg, log.WithComponent("storage"))
}
