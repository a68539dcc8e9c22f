// Package server exposes documents over Connect RPC.
//
// The service is described without generated code: every procedure takes a
// google.protobuf.Struct and returns a google.protobuf.Value, so it can be
// called with the Connect, gRPC or gRPC-Web protocols, or with plain JSON
// over HTTP POST:
//
//	curl -H 'Content-Type: application/json' \
//	  -d '{"document":"settings","path":"ui.theme"}' \
//	  http://127.0.0.1:8420/dotstore.v1.DocumentService/Get
//
// Mutations commit to the store at once; the store is flushed on Close.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/dotstore/document"
	"github.com/tailored-agentic-units/dotstore/observability"
	"github.com/tailored-agentic-units/dotstore/storage"
)

// Option configures a Server.
type Option func(*Server)

// WithObserver overrides the observer named in Config.
func WithObserver(o observability.Observer) Option {
	return func(s *Server) { s.observer = o }
}

// WithStore serves an existing store instead of building one from
// Config.Storage. The server opens and closes it.
func WithStore(store storage.Store) Option {
	return func(s *Server) { s.store = store }
}

type Server struct {
	cfg      Config
	store    storage.Store
	docs     *document.Collection
	observer observability.Observer
	handler  http.Handler

	mu     sync.Mutex
	http   *http.Server
	closed bool
}

// New builds the store, opens it and registers the service handlers.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Server, error) {
	s := &Server{cfg: *cfg}
	for _, opt := range opts {
		opt(s)
	}

	if s.observer == nil {
		obs, err := observability.Lookup(cfg.Observer)
		if err != nil {
			return nil, err
		}
		s.observer = obs
	}

	if s.store == nil {
		store, err := storage.NewStore(ctx, &cfg.Storage, storage.WithObserver(s.observer))
		if err != nil {
			return nil, fmt.Errorf("create store: %w", err)
		}
		s.store = store
	}
	if err := s.store.Open(ctx); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s.docs = document.NewCollection(s.store,
		document.WithAutoCommit(),
		document.WithObserver(s.observer),
	)
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	svc := &service{docs: s.docs}
	opts := connect.WithInterceptors(
		observerInterceptor(s.observer),
		rateLimitInterceptor(newLimiter(s.cfg.RateLimit)),
	)

	mux := http.NewServeMux()
	mux.Handle(GetProcedure, connect.NewUnaryHandler(GetProcedure, svc.Get, opts))
	mux.Handle(HasProcedure, connect.NewUnaryHandler(HasProcedure, svc.Has, opts))
	mux.Handle(SetProcedure, connect.NewUnaryHandler(SetProcedure, svc.Set, opts))
	mux.Handle(DeleteProcedure, connect.NewUnaryHandler(DeleteProcedure, svc.Delete, opts))
	mux.Handle(ClearProcedure, connect.NewUnaryHandler(ClearProcedure, svc.Clear, opts))
	mux.Handle(DumpProcedure, connect.NewUnaryHandler(DumpProcedure, svc.Dump, opts))
	mux.Handle(SelectProcedure, connect.NewUnaryHandler(SelectProcedure, svc.Select, opts))
	mux.Handle(EvalProcedure, connect.NewUnaryHandler(EvalProcedure, svc.Eval, opts))
	mux.Handle(ListProcedure, connect.NewUnaryHandler(ListProcedure, svc.List, opts))
	return mux
}

// Handler serves every procedure. Use it to mount the service on another
// mux or in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Store is the store backing every document.
func (s *Server) Store() storage.Store {
	return s.store
}

// ListenAndServe serves on Config.Addr until Close is called.
func (s *Server) ListenAndServe() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.http = &http.Server{Addr: s.cfg.Addr, Handler: s.handler}
	srv := s.http
	s.mu.Unlock()

	observability.Emit(context.Background(), s.observer, EventListen, observability.LevelInfo, "server", map[string]any{
		"addr": s.cfg.Addr,
	})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops accepting calls, waits for in-flight ones and flushes the
// store.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.http
	s.mu.Unlock()

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown: %w", err))
		}
	}
	if err := s.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
