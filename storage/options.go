package storage

import "github.com/tailored-agentic-units/dotstore/observability"

// Store event types.
const (
	EventOpen  observability.EventType = "storage.open"
	EventClose observability.EventType = "storage.close"
)

type options struct {
	observer          observability.Observer
	createIfNotExists bool
}

// Option configures a store.
type Option func(*options)

// WithObserver receives an event whenever the store opens or closes.
func WithObserver(o observability.Observer) Option {
	return func(opts *options) { opts.observer = o }
}

// WithCreateIfNotExists lets a file store open when its file is missing.
// The file is written on Close. Other stores ignore it.
func WithCreateIfNotExists(create bool) Option {
	return func(opts *options) { opts.createIfNotExists = create }
}

func buildOptions(opts []Option) options {
	o := options{observer: observability.NoOpObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
