package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/tailored-agentic-units/dotstore/server"
	"github.com/tailored-agentic-units/dotstore/storage"
)

const usage = `Usage: dotstore [flags] <command> [args]

Commands:
  get <path> [default]     print the value at path
  set <path> <value>       store value at path (JSON, or a bare string)
  has <path>               print whether path exists
  delete <path>            remove path
  clear                    empty the document
  dump                     print the whole document
  query <jsonpath>         print nodes matched by an RFC 9535 JSONPath
  eval <expression>        evaluate an expr-lang expression
  sort <path> [key...]     print the records at path, greatest first by key
  list                     print stored document names
  serve                    serve documents over Connect RPC

Flags:`

func main() {
	var (
		configFile = flag.String("config", "", "Path to server config JSON file")
		storeKind  = flag.String("store", "", "Store kind: memory, json, yaml or dynamodb (overrides config)")
		storePath  = flag.String("path", "", "Store file path; kind inferred from extension when -store is unset (overrides config)")
		create     = flag.Bool("create", false, "Create the store file if it does not exist")
		docName    = flag.String("document", "default", "Document (store record) to operate on")
		addr       = flag.String("addr", "", "Listen address for serve (overrides config)")
		rateLimit  = flag.Float64("rate-limit", -1, "Requests per second for serve; 0 for unlimited (overrides config)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := server.DefaultConfig()
	if *configFile != "" {
		loaded, err := server.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}

	if *storePath != "" {
		cfg.Storage.Path = *storePath
		if *storeKind == "" {
			cfg.Storage.Kind = storage.KindFromPath(*storePath)
		}
	}
	if *storeKind != "" {
		cfg.Storage.Kind = storage.Kind(*storeKind)
	}
	if *create {
		cfg.Storage.CreateIfNotExists = true
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *rateLimit >= 0 {
		cfg.RateLimit = *rateLimit
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &app{cfg: cfg, document: *docName, logger: logger, out: os.Stdout}
	if err := app.run(ctx, flag.Args()); err != nil {
		log.Fatalf("dotstore %s: %v", flag.Arg(0), err)
	}
}
