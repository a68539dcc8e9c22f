package storage

import (
	"context"

	"github.com/tailored-agentic-units/dotstore/observability"
	"github.com/tailored-agentic-units/dotstore/value"
)

// MemoryStore keeps records in process memory. Records survive Close and are
// visible again after the next Open.
type MemoryStore struct {
	table
	observer observability.Observer
}

// NewMemoryStore creates an empty, unopened MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		table:    newTable("memory"),
		observer: o.observer,
	}
}

func (s *MemoryStore) Open(ctx context.Context) error {
	s.reopen()
	observability.Emit(ctx, s.observer, EventOpen, observability.LevelInfo, "storage.memory", nil)
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	if !s.isOpen() {
		return nil
	}
	s.close()
	observability.Emit(ctx, s.observer, EventClose, observability.LevelInfo, "storage.memory", nil)
	return nil
}

// Contents returns a copy of every record, opened or not.
func (s *MemoryStore) Contents() value.Value {
	return value.Map(s.snapshot())
}
