package store

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/riglink/pkg/errors"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (m *MemoryStore) Get(ctx context.Context, name string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[name]
	if !ok {
		return nil, notFound(name)
	}
	return rec.Clone(), nil
}

func (m *MemoryStore) Put(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Name] = rec.Clone()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[name]; !ok {
		return notFound(name)
	}
	delete(m.records, name)
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.records))
	for name := range m.records {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (m *MemoryStore) Close() error { return nil }

func notFound(name string) error {
	return errors.New(errors.ErrCodeSceneNotFound, "scene %q not found", name)
}

var _ Store = (*MemoryStore)(nil)
