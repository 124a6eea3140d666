package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sbpremium/gifts-backend/pkg/logger"
)

// FileStore persists each collection as one JSON object (key -> document) in
// <dir>/<collection>.json.
type FileStore struct {
	dir  string
	logg *logger.Logger

	mu          sync.Mutex
	collections map[string]map[string]json.RawMessage
	corrupt     map[string]error
}

func NewFileStore(dir string, logg *logger.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir %q: %w", dir, err)
	}
	return &FileStore{
		dir:         dir,
		logg:        logg,
		collections: make(map[string]map[string]json.RawMessage),
		corrupt:     make(map[string]error),
	}, nil
}

func (f *FileStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	docs := f.load(ctx, collection)
	body, ok := docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(body), nil
}

func (f *FileStore) Put(ctx context.Context, collection, key string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.write(ctx, collection, key, body)
}

func (f *FileStore) List(ctx context.Context, collection string) ([]Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	docs := f.load(ctx, collection)
	out := make([]Document, 0, len(docs))
	for key, body := range docs {
		out = append(out, Document{Collection: collection, Key: key, Body: cloneBytes(body)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *FileStore) Update(ctx context.Context, collection, key string, fn UpdateFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	docs := f.load(ctx, collection)
	current, exists := docs[key]

	next, err := fn(cloneBytes(current), exists)
	if errors.Is(err, ErrSkipWrite) {
		return nil
	}
	if err != nil {
		return err
	}
	return f.write(ctx, collection, key, next)
}

func (f *FileStore) Ping(context.Context) error {
	_, err := os.Stat(f.dir)
	return err
}

func (f *FileStore) path(collection string) string {
	return filepath.Join(f.dir, collection+".json")
}

// load returns the cached collection, reading it from disk on first use. A
// missing file is an empty collection; an unreadable one is logged, served as
// empty and blocked for writes so it is never silently overwritten.
func (f *FileStore) load(ctx context.Context, collection string) map[string]json.RawMessage {
	if docs, ok := f.collections[collection]; ok {
		return docs
	}

	docs := make(map[string]json.RawMessage)
	raw, err := os.ReadFile(f.path(collection))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		f.markCorrupt(ctx, collection, err)
	case len(bytes.TrimSpace(raw)) > 0:
		if err := json.Unmarshal(raw, &docs); err != nil {
			docs = make(map[string]json.RawMessage)
			f.markCorrupt(ctx, collection, err)
		}
	}
	f.collections[collection] = docs
	return docs
}

func (f *FileStore) markCorrupt(ctx context.Context, collection string, err error) {
	f.corrupt[collection] = err
	if f.logg != nil {
		logCtx := f.logg.WithFields(ctx, map[string]any{"collection": collection, "path": f.path(collection)})
		f.logg.Error(logCtx, "docstore.file.read_failed", err)
	}
}

func (f *FileStore) write(ctx context.Context, collection, key string, body []byte) error {
	docs := f.load(ctx, collection)
	if cause, ok := f.corrupt[collection]; ok {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, collection, cause)
	}
	if !json.Valid(body) {
		return fmt.Errorf("document %s/%s is not valid json", collection, key)
	}

	next := make(map[string]json.RawMessage, len(docs)+1)
	for k, v := range docs {
		next[k] = v
	}
	next[key] = cloneBytes(body)

	payload, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", collection, err)
	}
	if err := writeFileAtomic(f.path(collection), payload); err != nil {
		return fmt.Errorf("write collection %s: %w", collection, err)
	}
	f.collections[collection] = next
	return nil
}

func writeFileAtomic(path string, payload []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
