package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tailored-agentic-units/dotstore/observability"
	"github.com/tailored-agentic-units/dotstore/value"
)

// FileStore persists the whole record set as one document file. The file is
// read on Open and rewritten atomically on Close; nothing touches disk in
// between.
type FileStore struct {
	table
	filename          string
	createIfNotExists bool
	codec             codec
	observer          observability.Observer
}

// NewJSONFileStore creates a FileStore that reads and writes a JSON object.
func NewJSONFileStore(filename string, opts ...Option) *FileStore {
	return newFileStore(filename, jsonCodec{}, opts)
}

// NewYAMLFileStore creates a FileStore that reads and writes a YAML mapping.
func NewYAMLFileStore(filename string, opts ...Option) *FileStore {
	return newFileStore(filename, yamlCodec{}, opts)
}

func newFileStore(filename string, c codec, opts []Option) *FileStore {
	o := buildOptions(opts)
	return &FileStore{
		table:             newTable(c.name() + ":" + filename),
		filename:          filename,
		createIfNotExists: o.createIfNotExists,
		codec:             c,
		observer:          o.observer,
	}
}

func (s *FileStore) Filename() string {
	return s.filename
}

func (s *FileStore) CreateIfNotExists() bool {
	return s.createIfNotExists
}

// SetCreateIfNotExists changes the missing-file policy for the next Open.
func (s *FileStore) SetCreateIfNotExists(create bool) {
	s.createIfNotExists = create
}

// Open reads the file. A missing file is an error unless CreateIfNotExists
// is set, in which case the store opens empty. A zero-length file also opens
// empty; any other content, whitespace included, must decode to a mapping.
func (s *FileStore) Open(ctx context.Context) error {
	records := value.NewMapping()

	data, err := os.ReadFile(s.filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if !s.createIfNotExists {
			return fmt.Errorf("%w: %s", ErrFileNotFound, s.filename)
		}
	case err != nil:
		return fmt.Errorf("%w: %s: %v", ErrIO, s.filename, err)
	case len(data) > 0:
		records, err = s.codec.decode(data)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidFormat, s.filename, err)
		}
	}

	s.load(records)
	observability.Emit(ctx, s.observer, EventOpen, observability.LevelInfo, "storage.file", map[string]any{
		"filename": s.filename,
		"records":  records.Len(),
	})
	return nil
}

// Close writes every record back to the file, creating parent directories
// as needed. The store stays open when the write fails so Close can be
// retried.
func (s *FileStore) Close(ctx context.Context) error {
	if !s.isOpen() {
		return nil
	}

	records := s.snapshot()
	data, err := s.codec.encode(records)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIO, s.filename, err)
	}
	if err := writeAtomic(s.filename, data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIO, s.filename, err)
	}

	s.close()
	observability.Emit(ctx, s.observer, EventClose, observability.LevelInfo, "storage.file", map[string]any{
		"filename": s.filename,
		"records":  records.Len(),
	})
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
