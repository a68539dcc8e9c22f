// Package document binds a dot-path accessor to one record of a store.
//
// A Document loads its record once, serves reads and writes from memory
// under a single lock, and writes the whole tree back to the record on
// Commit. The store must be open for Open and Commit.
package document

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/dotstore/dotpath"
	"github.com/tailored-agentic-units/dotstore/observability"
	"github.com/tailored-agentic-units/dotstore/query"
	"github.com/tailored-agentic-units/dotstore/storage"
	"github.com/tailored-agentic-units/dotstore/value"
)

var ErrNilStore = errors.New("document store is nil")

// EventCommit is emitted after a document is written back to its store.
const EventCommit observability.EventType = "document.commit"

// Option configures a Document.
type Option func(*Document)

// WithAutoCommit commits after every Set, Delete and Clear.
func WithAutoCommit() Option {
	return func(d *Document) { d.autoCommit = true }
}

// WithObserver receives commit events and the accessor's mutation events.
func WithObserver(o observability.Observer) Option {
	return func(d *Document) { d.observer = o }
}

// Document is a store record addressed by dot paths. It is safe for
// concurrent use.
type Document struct {
	id         string
	key        string
	store      storage.Store
	autoCommit bool
	observer   observability.Observer

	mu  sync.Mutex
	acc *dotpath.Accessor
}

// Open reads record key from store. An absent or null record starts as an
// empty mapping.
func Open(store storage.Store, key string, opts ...Option) (*Document, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	d := &Document{
		id:       uuid.Must(uuid.NewV7()).String(),
		key:      key,
		store:    store,
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}

	root, err := store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", key, err)
	}
	d.acc = dotpath.New(root, dotpath.WithObserver(d.observer))
	return d, nil
}

// ID uniquely identifies this Document instance.
func (d *Document) ID() string {
	return d.id
}

// Key is the store record backing the document.
func (d *Document) Key() string {
	return d.key
}

func (d *Document) Get(path string, def value.Value) value.Value {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.acc.Get(path, def)
}

func (d *Document) Has(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.acc.Has(path)
}

// Set stores v at path. Values holding NaN or infinite numbers are refused
// with value.ErrNonFinite and leave the document unchanged.
func (d *Document) Set(path string, v value.Value) error {
	if err := value.CheckFinite(v); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.acc.Set(path, v); err != nil {
		return err
	}
	return d.maybeCommit()
}

// SetAny converts v with value.FromAny and stores it at path.
func (d *Document) SetAny(path string, v any) error {
	converted, err := value.FromAny(v)
	if err != nil {
		return err
	}
	return d.Set(path, converted)
}

// Delete removes path. It only fails when auto-commit cannot write.
func (d *Document) Delete(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.acc.Delete(path)
	return d.maybeCommit()
}

// Clear empties the document. It only fails when auto-commit cannot write.
func (d *Document) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.acc.Clear()
	return d.maybeCommit()
}

func (d *Document) Dump() value.Value {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.acc.Dump()
}

// Select runs a JSONPath query over the document.
func (d *Document) Select(expr string) ([]value.Value, error) {
	return query.Select(d.Dump(), expr)
}

// Eval evaluates an expression with the document's top-level keys as
// variables.
func (d *Document) Eval(expression string) (value.Value, error) {
	return query.Eval(d.Dump(), expression)
}

// Commit writes the whole tree to the backing record.
func (d *Document) Commit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commit()
}

func (d *Document) maybeCommit() error {
	if !d.autoCommit {
		return nil
	}
	return d.commit()
}

func (d *Document) commit() error {
	if err := d.store.Set(d.key, d.acc.Dump()); err != nil {
		return fmt.Errorf("commit document %s: %w", d.key, err)
	}
	observability.Emit(context.Background(), d.observer, EventCommit, observability.LevelInfo, "document", map[string]any{
		"document": d.key,
		"id":       d.id,
	})
	return nil
}
