package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tailored-agentic-units/dotstore/storage"
)

func TestDefaultConfig(t *testing.T) {
	cfg := storage.DefaultConfig()

	if cfg.Kind != storage.KindMemory {
		t.Errorf("got Kind %q, want %q", cfg.Kind, storage.KindMemory)
	}
	if cfg.Table == "" || cfg.Partition == "" {
		t.Errorf("got Table %q Partition %q, want defaults", cfg.Table, cfg.Partition)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := storage.DefaultConfig()

	source := &storage.Config{
		Kind:              storage.KindJSON,
		Path:              "/data/store.json",
		CreateIfNotExists: true,
		Region:            "us-east-1",
	}
	cfg.Merge(source)

	if cfg.Kind != storage.KindJSON {
		t.Errorf("got Kind %q, want %q", cfg.Kind, storage.KindJSON)
	}
	if cfg.Path != "/data/store.json" {
		t.Errorf("got Path %q, want %q", cfg.Path, "/data/store.json")
	}
	if !cfg.CreateIfNotExists {
		t.Error("got CreateIfNotExists false, want true")
	}
	if cfg.Region != "us-east-1" {
		t.Errorf("got Region %q, want %q", cfg.Region, "us-east-1")
	}
	if cfg.Table != "dotstore" {
		t.Errorf("got Table %q, want default preserved", cfg.Table)
	}
}

func TestConfig_Merge_EmptyPreservesDefault(t *testing.T) {
	cfg := storage.Config{Kind: storage.KindYAML, Path: "/original.yaml", CreateIfNotExists: true}

	cfg.Merge(&storage.Config{})

	if cfg.Kind != storage.KindYAML || cfg.Path != "/original.yaml" || !cfg.CreateIfNotExists {
		t.Errorf("got %+v, want original values preserved", cfg)
	}
}

func TestKindFromPath(t *testing.T) {
	tests := []struct {
		path string
		want storage.Kind
	}{
		{"store.json", storage.KindJSON},
		{"store.yaml", storage.KindYAML},
		{"store.YML", storage.KindYAML},
		{"store", storage.KindJSON},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := storage.KindFromPath(tt.path); got != tt.want {
				t.Errorf("KindFromPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr error
		check   func(t *testing.T, s storage.Store)
	}{
		{
			name: "memory",
			cfg:  storage.Config{Kind: storage.KindMemory},
			check: func(t *testing.T, s storage.Store) {
				if _, ok := s.(*storage.MemoryStore); !ok {
					t.Errorf("got %T, want *storage.MemoryStore", s)
				}
			},
		},
		{
			name: "json",
			cfg:  storage.Config{Kind: storage.KindJSON, Path: filepath.Join(dir, "s.json"), CreateIfNotExists: true},
			check: func(t *testing.T, s storage.Store) {
				fs, ok := s.(*storage.FileStore)
				if !ok {
					t.Fatalf("got %T, want *storage.FileStore", s)
				}
				if !fs.CreateIfNotExists() {
					t.Error("CreateIfNotExists() = false, want true from config")
				}
			},
		},
		{
			name: "yaml",
			cfg:  storage.Config{Kind: storage.KindYAML, Path: filepath.Join(dir, "s.yaml")},
			check: func(t *testing.T, s storage.Store) {
				if _, ok := s.(*storage.FileStore); !ok {
					t.Errorf("got %T, want *storage.FileStore", s)
				}
			},
		},
		{
			name:    "unknown",
			cfg:     storage.Config{Kind: "redis"},
			wantErr: storage.ErrUnknownKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := storage.NewStore(context.Background(), &tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewStore() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}
			tt.check(t, s)
		})
	}
}

func TestNewStore_FileWithoutPath(t *testing.T) {
	_, err := storage.NewStore(context.Background(), &storage.Config{Kind: storage.KindJSON})
	if err == nil {
		t.Fatal("NewStore() error = nil, want path error")
	}
}
