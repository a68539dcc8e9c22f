package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tailored-agentic-units/dotstore/document"
	"github.com/tailored-agentic-units/dotstore/observability"
	"github.com/tailored-agentic-units/dotstore/server"
	"github.com/tailored-agentic-units/dotstore/sorting"
	"github.com/tailored-agentic-units/dotstore/storage"
	"github.com/tailored-agentic-units/dotstore/value"
)

const shutdownTimeout = 10 * time.Second

var errUsage = errors.New("invalid arguments")

type app struct {
	cfg      server.Config
	document string
	logger   *slog.Logger
	out      io.Writer
}

// observer logs through the CLI logger and also feeds the observer named in
// the config, unless that is one of the built-in ones.
func (a *app) observer() observability.Observer {
	logged := observability.NewSlogObserver(a.logger)
	switch a.cfg.Observer {
	case "", "noop", "slog":
		return logged
	}

	named, err := observability.Lookup(a.cfg.Observer)
	if err != nil {
		a.logger.Warn("ignoring observer", "error", err)
		return logged
	}
	return observability.NewMultiObserver(logged, named)
}

func (a *app) run(ctx context.Context, args []string) error {
	cmd, args := args[0], args[1:]

	switch cmd {
	case "serve":
		return a.serve(ctx)
	case "list":
		return a.withStore(ctx, false, func(store storage.Store, _ *document.Document) error {
			keys, err := store.Keys()
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Fprintln(a.out, key)
			}
			return nil
		})
	case "get":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("%w: get <path> [default]", errUsage)
		}
		def := value.Null()
		if len(args) == 2 {
			def = parseValue(args[1])
		}
		return a.withDocument(ctx, false, func(d *document.Document) error {
			return a.print(d.Get(args[0], def))
		})
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("%w: set <path> <value>", errUsage)
		}
		return a.withDocument(ctx, true, func(d *document.Document) error {
			return d.Set(args[0], parseValue(args[1]))
		})
	case "has":
		if len(args) != 1 {
			return fmt.Errorf("%w: has <path>", errUsage)
		}
		return a.withDocument(ctx, false, func(d *document.Document) error {
			return a.print(value.Bool(d.Has(args[0])))
		})
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("%w: delete <path>", errUsage)
		}
		return a.withDocument(ctx, true, func(d *document.Document) error {
			return d.Delete(args[0])
		})
	case "clear":
		return a.withDocument(ctx, true, func(d *document.Document) error {
			return d.Clear()
		})
	case "dump":
		return a.withDocument(ctx, false, func(d *document.Document) error {
			return a.print(d.Dump())
		})
	case "query":
		if len(args) != 1 {
			return fmt.Errorf("%w: query <jsonpath>", errUsage)
		}
		return a.withDocument(ctx, false, func(d *document.Document) error {
			nodes, err := d.Select(args[0])
			if err != nil {
				return err
			}
			for _, node := range nodes {
				if err := a.print(node); err != nil {
					return err
				}
			}
			return nil
		})
	case "eval":
		if len(args) != 1 {
			return fmt.Errorf("%w: eval <expression>", errUsage)
		}
		return a.withDocument(ctx, false, func(d *document.Document) error {
			result, err := d.Eval(args[0])
			if err != nil {
				return err
			}
			return a.print(result)
		})
	case "sort":
		if len(args) < 1 {
			return fmt.Errorf("%w: sort <path> [key...]", errUsage)
		}
		return a.withDocument(ctx, false, func(d *document.Document) error {
			records, ok := d.Get(args[0], value.Null()).AsMapping()
			if !ok {
				return fmt.Errorf("%s does not hold a record set", args[0])
			}
			sorted := sorting.NewKeySorter(args[1:]...).SortDescending(records)
			return a.print(value.Map(sorted))
		})
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

// withStore opens the configured store for one command and closes it
// afterwards. Close persists the store only when the command succeeded.
func (a *app) withStore(ctx context.Context, commit bool, fn func(storage.Store, *document.Document) error) error {
	store, err := storage.NewStore(ctx, &a.cfg.Storage, storage.WithObserver(a.observer()))
	if err != nil {
		return err
	}
	if err := store.Open(ctx); err != nil {
		return err
	}

	d, err := document.Open(store, a.document, document.WithObserver(a.observer()))
	if err != nil {
		return err
	}

	if err := fn(store, d); err != nil {
		return err
	}
	// Closing persists the store, so read-only commands leave it open and
	// never touch the backing file or table. Stores hold no OS resources.
	if !commit {
		return nil
	}
	if err := d.Commit(); err != nil {
		return err
	}
	return store.Close(ctx)
}

func (a *app) withDocument(ctx context.Context, commit bool, fn func(*document.Document) error) error {
	return a.withStore(ctx, commit, func(_ storage.Store, d *document.Document) error {
		return fn(d)
	})
}

func (a *app) serve(ctx context.Context) error {
	srv, err := server.New(ctx, &a.cfg, server.WithObserver(a.observer()))
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return errors.Join(err, srv.Close(context.Background()))
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", "addr", a.cfg.Addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Close(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

func (a *app) print(v value.Value) error {
	data, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "%s\n", data)
	return err
}

// parseValue reads a command-line argument as JSON, falling back to a plain
// string so that `set ui.theme dark` works unquoted.
func parseValue(arg string) value.Value {
	v, err := value.ParseJSON([]byte(arg))
	if err != nil {
		return value.String(arg)
	}
	return v
}
