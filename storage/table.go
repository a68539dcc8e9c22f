package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tailored-agentic-units/dotstore/value"
)

// table is the in-memory record set behind every store. It gates access on
// the open flag and tracks which keys changed since load so that backends
// writing per record (DynamoDB) can flush only what is pending.
type table struct {
	name    string
	mu      sync.RWMutex
	opened  bool
	records *value.Mapping
	dirty   map[string]bool
	removed map[string]bool
}

func newTable(name string) table {
	return table{
		name:    name,
		records: value.NewMapping(),
		dirty:   make(map[string]bool),
		removed: make(map[string]bool),
	}
}

// load replaces the records and opens the table. Change tracking restarts.
func (t *table) load(records *value.Mapping) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records = records
	t.dirty = make(map[string]bool)
	t.removed = make(map[string]bool)
	t.opened = true
}

// reopen opens the table keeping its current records.
func (t *table) reopen() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opened = true
}

func (t *table) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opened = false
}

func (t *table) isOpen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.opened
}

func (t *table) notOpened() error {
	return fmt.Errorf("%w: %s", ErrNotOpened, t.name)
}

func (t *table) Set(key string, v value.Value) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.opened {
		return t.notOpened()
	}
	if err := value.CheckFinite(v); err != nil {
		return fmt.Errorf("record %q: %w", key, err)
	}
	t.records.Set(key, v.Clone())
	t.dirty[key] = true
	delete(t.removed, key)
	return nil
}

func (t *table) Get(key string) (value.Value, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.opened {
		return value.Null(), t.notOpened()
	}
	v, ok := t.records.Get(key)
	if !ok {
		return value.Null(), nil
	}
	return v.Clone(), nil
}

func (t *table) Has(key string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.opened {
		return false, t.notOpened()
	}
	return t.records.Has(key), nil
}

func (t *table) Delete(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.opened {
		return t.notOpened()
	}
	if t.records.Delete(key) {
		t.removed[key] = true
	}
	delete(t.dirty, key)
	return nil
}

func (t *table) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.opened {
		return t.notOpened()
	}
	for _, key := range t.records.Keys() {
		t.removed[key] = true
	}
	t.records = value.NewMapping()
	t.dirty = make(map[string]bool)
	return nil
}

func (t *table) Keys() ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.opened {
		return nil, t.notOpened()
	}
	keys := t.records.Keys()
	sort.Strings(keys)
	return keys, nil
}

// snapshot returns a copy of all records.
func (t *table) snapshot() *value.Mapping {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.records.Clone()
}

// pending returns copies of dirty records and the removed keys, both sorted.
func (t *table) pending() (map[string]value.Value, []string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	toSave := make(map[string]value.Value, len(t.dirty))
	for key := range t.dirty {
		if v, ok := t.records.Get(key); ok {
			toSave[key] = v.Clone()
		}
	}
	toDelete := make([]string, 0, len(t.removed))
	for key := range t.removed {
		toDelete = append(toDelete, key)
	}
	sort.Strings(toDelete)
	return toSave, toDelete
}

// settle forgets change tracking for keys that were flushed.
func (t *table) settle(saved map[string]value.Value, deleted []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key := range saved {
		delete(t.dirty, key)
	}
	for _, key := range deleted {
		delete(t.removed, key)
	}
}
