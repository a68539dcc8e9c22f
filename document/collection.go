package document

import (
	"errors"
	"sync"

	"github.com/tailored-agentic-units/dotstore/storage"
)

// Collection hands out one shared Document per record key of a store.
// Documents are opened on first use.
type Collection struct {
	store storage.Store
	opts  []Option

	mu   sync.Mutex
	docs map[string]*Document
}

// NewCollection creates a Collection over an opened store. opts apply to
// every Document it opens.
func NewCollection(store storage.Store, opts ...Option) *Collection {
	return &Collection{
		store: store,
		opts:  opts,
		docs:  make(map[string]*Document),
	}
}

// Document returns the Document for key, opening it if needed.
func (c *Collection) Document(key string) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.docs[key]; ok {
		return d, nil
	}
	d, err := Open(c.store, key, c.opts...)
	if err != nil {
		return nil, err
	}
	c.docs[key] = d
	return d, nil
}

// Keys lists the records of the underlying store.
func (c *Collection) Keys() ([]string, error) {
	return c.store.Keys()
}

// Commit writes every opened Document to the store. It attempts all of them
// and joins the failures.
func (c *Collection) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, d := range c.docs {
		if err := d.Commit(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reset forgets every opened Document so the next access reloads from the
// store.
func (c *Collection) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = make(map[string]*Document)
}
