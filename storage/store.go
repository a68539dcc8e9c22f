// Package storage provides flat key/value record stores with an explicit
// open/close lifecycle. Records may hold any value.Value, including nested
// mappings, but stores never interpret dot paths.
//
// Every implementation loads its whole state on Open and works in memory
// until Close, which persists pending changes (if the backend is durable).
// Record methods fail with ErrNotOpened outside the open window.
package storage

import (
	"context"

	"github.com/tailored-agentic-units/dotstore/value"
)

// Store is the key/value capability set shared by all backends.
type Store interface {
	// Open loads or initializes state. Blocking backends honor ctx.
	Open(ctx context.Context) error
	// Set creates or replaces the record under key. Values holding NaN or
	// infinite numbers fail with value.ErrNonFinite.
	Set(key string, v value.Value) error
	// Get returns the record under key, or null when absent.
	Get(key string) (value.Value, error)
	// Has reports whether a record exists under key.
	Has(key string) (bool, error)
	// Delete removes the record under key. Missing keys are ignored.
	Delete(key string) error
	// Clear removes every record.
	Clear() error
	// Keys lists record keys, sorted.
	Keys() ([]string, error)
	// Close persists pending changes and ends the open window. Closing a
	// store that is not open does nothing.
	Close(ctx context.Context) error
}
