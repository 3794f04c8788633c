package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File is a durable store backed by a single JSON blob on disk, mirroring
// the browser's localStorage cache: the whole blob is decoded on every Get
// and re-encoded on every Set. Acceptable at the expected cardinality of
// tens to low hundreds of entries. A missing or corrupt blob reads as an
// empty cache; reads never fail the caller. Negative entries are not
// persisted.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile creates a file-blob store at the given path. The file is created
// lazily on first Set.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Get(_ context.Context, token string) (*Entry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	blob := f.read()
	e, ok := blob[token]
	if !ok || e == nil {
		return nil, false, nil
	}
	return e, true, nil
}

func (f *File) Set(_ context.Context, token string, e *Entry) error {
	if e == nil {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	blob := f.read()
	blob[token] = e
	return f.write(blob)
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear cache file: %w", err)
	}
	return nil
}

// read loads the whole blob, treating any failure as an empty cache.
func (f *File) read() map[string]*Entry {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return map[string]*Entry{}
	}
	var blob map[string]*Entry
	if err := json.Unmarshal(data, &blob); err != nil || blob == nil {
		return map[string]*Entry{}
	}
	return blob
}

func (f *File) write(blob map[string]*Entry) error {
	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("encode cache blob: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

var _ Store = (*File)(nil)
