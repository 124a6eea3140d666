package docstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[string]*Document
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]*Document),
		now:  time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.data[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(doc.Body), nil
}

func (m *MemoryStore) Put(ctx context.Context, collection, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.write(collection, key, body)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := make([]Document, 0, len(m.data[collection]))
	for _, doc := range m.data[collection] {
		cp := *doc
		cp.Body = cloneBytes(doc.Body)
		docs = append(docs, cp)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })
	return docs, nil
}

func (m *MemoryStore) Update(ctx context.Context, collection, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current []byte
	doc, exists := m.data[collection][key]
	if exists {
		current = cloneBytes(doc.Body)
	}

	next, err := fn(current, exists)
	if errors.Is(err, ErrSkipWrite) {
		return nil
	}
	if err != nil {
		return err
	}
	m.write(collection, key, next)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) write(collection, key string, body []byte) {
	docs, ok := m.data[collection]
	if !ok {
		docs = make(map[string]*Document)
		m.data[collection] = docs
	}
	version := int64(1)
	if prev, ok := docs[key]; ok {
		version = prev.Version + 1
	}
	docs[key] = &Document{
		Collection: collection,
		Key:        key,
		Body:       cloneBytes(body),
		Version:    version,
		UpdatedAt:  m.now().UTC(),
	}
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
