package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/dotstore/dotpath"
	"github.com/tailored-agentic-units/dotstore/observability"
	"github.com/tailored-agentic-units/dotstore/server"
	"github.com/tailored-agentic-units/dotstore/storage"
)

func newTestApp(t *testing.T, filename string) (*app, *bytes.Buffer) {
	t.Helper()
	cfg := server.DefaultConfig()
	cfg.Storage = storage.Config{Kind: storage.KindFromPath(filename), Path: filename, CreateIfNotExists: true}

	var out bytes.Buffer
	return &app{
		cfg:      cfg,
		document: "settings",
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		out:      &out,
	}, &out
}

func runCmd(t *testing.T, a *app, out *bytes.Buffer, args ...string) string {
	t.Helper()
	out.Reset()
	if err := a.run(context.Background(), args); err != nil {
		t.Fatalf("run(%v) error = %v", args, err)
	}
	return strings.TrimSpace(out.String())
}

func TestApp_Commands(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "store.json")
	a, out := newTestApp(t, filename)

	runCmd(t, a, out, "set", "ui.theme", "dark")
	runCmd(t, a, out, "set", "ui.size", "12")
	runCmd(t, a, out, "set", "users", `{"ada":{"age":36},"alan":{"age":41},"grace":{"age":85}}`)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"get", "ui.theme"}, `"dark"`},
		{[]string{"get", "ui.size"}, `12`},
		{[]string{"get", "ui.missing", `"none"`}, `"none"`},
		{[]string{"has", "ui.size"}, `true`},
		{[]string{"has", "ui.size.deeper"}, `false`},
		{[]string{"query", "$.users.grace.age"}, `85`},
		{[]string{"eval", "users.grace.age - users.ada.age"}, `49`},
		{[]string{"sort", "users", "age"}, `{"grace":{"age":85},"alan":{"age":41},"ada":{"age":36}}`},
		{[]string{"list"}, `settings`},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			if got := runCmd(t, a, out, tt.args...); got != tt.want {
				t.Errorf("output = %s, want %s", got, tt.want)
			}
		})
	}

	runCmd(t, a, out, "delete", "users")
	if got := runCmd(t, a, out, "dump"); got != `{"ui":{"theme":"dark","size":12}}` {
		t.Errorf("dump = %s", got)
	}

	runCmd(t, a, out, "clear")
	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != `{"settings":{}}` {
		t.Errorf("file = %s, want {\"settings\":{}}", data)
	}
}

func TestApp_YAMLStore(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "store.yaml")
	a, out := newTestApp(t, filename)

	runCmd(t, a, out, "set", "a.b", "[1,2]")
	if got := runCmd(t, a, out, "get", "a"); got != `{"b":[1,2]}` {
		t.Errorf("get a = %s", got)
	}
}

func TestApp_Errors(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "store.json")
	a, out := newTestApp(t, filename)
	runCmd(t, a, out, "set", "scalar", "1")

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown command", []string{"frobnicate"}, errUsage},
		{"missing args", []string{"set", "only-path"}, errUsage},
		{"unresolvable", []string{"set", "scalar.x", "1"}, dotpath.ErrUnresolvablePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := a.run(context.Background(), tt.args); !errors.Is(err, tt.want) {
				t.Errorf("run(%v) error = %v, want %v", tt.args, err, tt.want)
			}
		})
	}
}

func TestApp_ReadCommandsLeaveFileUntouched(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "store.json")
	original := "{\n  \"settings\": {\n    \"ui\": {\"theme\": \"dark\"}\n  }\n}\n"
	if err := os.WriteFile(filename, []byte(original), 0o644); err != nil {
		t.Fatal(err)
	}
	a, out := newTestApp(t, filename)

	for _, args := range [][]string{
		{"get", "ui.theme"},
		{"has", "ui"},
		{"dump"},
		{"query", "$.ui.theme"},
		{"eval", "ui.theme"},
		{"list"},
	} {
		runCmd(t, a, out, args...)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != original {
		t.Errorf("file = %q, want %q", data, original)
	}
}

func TestApp_ReadCommandDoesNotCreateFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "store.json")
	a, out := newTestApp(t, filename)

	if got := runCmd(t, a, out, "dump"); got != "{}" {
		t.Errorf("dump = %s, want {}", got)
	}
	if _, err := os.Stat(filename); !os.IsNotExist(err) {
		t.Errorf("store file created by dump, stat error = %v", err)
	}
}

func TestApp_MissingStoreFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "store.json")
	a, _ := newTestApp(t, filename)
	a.cfg.Storage.CreateIfNotExists = false

	if err := a.run(context.Background(), []string{"dump"}); !errors.Is(err, storage.ErrFileNotFound) {
		t.Errorf("run(dump) error = %v, want ErrFileNotFound", err)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		arg  string
		want string
	}{
		{`"quoted"`, `"quoted"`},
		{`bare words`, `"bare words"`},
		{`true`, `true`},
		{`{"a":[1]}`, `{"a":[1]}`},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			if got := parseValue(tt.arg).String(); got != tt.want {
				t.Errorf("parseValue(%q) = %s, want %s", tt.arg, got, tt.want)
			}
		})
	}
}

type namedObserver struct {
	events int
}

func (n *namedObserver) OnEvent(context.Context, observability.Event) {
	n.events++
}

func TestApp_NamedObserver(t *testing.T) {
	named := &namedObserver{}
	observability.Register("app-test", named)

	filename := filepath.Join(t.TempDir(), "store.json")
	a, out := newTestApp(t, filename)
	a.cfg.Observer = "app-test"

	runCmd(t, a, out, "set", "a", "1")
	if named.events == 0 {
		t.Error("named observer received no events")
	}
}
