package testutil

import (
	"context"

	"github.com/kbukum/invoicer/component"
)

// TestComponent extends component.Component with a Reset used between test
// cases. Reset must leave reference data (seeded rows, buckets) in place.
type TestComponent interface {
	component.Component

	// Reset restores the component to the state it had right after Start.
	Reset(ctx context.Context) error
}
