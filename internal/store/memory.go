package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/glee/internal/core"
)

// MemoryStore is an in-process core.Store used for dry runs and tests.
// Contacts and alumnae upsert on their key; wardrobe items always append.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord // "kind/key"
	items   []core.Entity           // insertion order, appended rows included
	audits  []core.AuditEntry
}

type memoryRecord struct {
	entity    core.Entity
	updatedAt *time.Time
	createdBy string
	updatedBy string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryRecord)}
}

func recordKey(kind, key string) string { return kind + "/" + key }

// Lookup implements core.Store.
func (m *MemoryStore) Lookup(_ context.Context, kind, key string) (core.Existing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[recordKey(kind, key)]
	if !ok {
		return core.Existing{}, nil
	}
	return core.Existing{Found: true, UpdatedAt: rec.updatedAt}, nil
}

// Save implements core.Store.
func (m *MemoryStore) Save(_ context.Context, actor core.Actor, e core.Entity) error {
	var updatedAt *time.Time
	switch v := e.(type) {
	case *core.Contact:
		updatedAt = v.DateUpdated
	case *core.Alumna:
		updatedAt = v.LastUpdate
	case *core.WardrobeItem:
	default:
		return fmt.Errorf("%w: %T", core.ErrUnknownKind, e)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := recordKey(e.Kind(), e.NaturalKey())
	rec, exists := m.records[k]
	if !exists {
		rec.createdBy = actor.ID
	}
	rec.entity = e
	rec.updatedAt = updatedAt
	rec.updatedBy = actor.ID
	m.records[k] = rec
	m.items = append(m.items, e)
	return nil
}

// RecordAudit implements core.AuditRecorder.
func (m *MemoryStore) RecordAudit(_ context.Context, a core.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, a)
	return nil
}

// Entities returns every saved entity of kind in save order.
func (m *MemoryStore) Entities(kind string) []core.Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Entity
	for _, e := range m.items {
		if e.Kind() == kind {
			out = append(out, e)
		}
	}
	return out
}

// Keys returns the distinct stored keys of kind, sorted.
func (m *MemoryStore) Keys(kind string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := kind + "/"
	var keys []string
	for k := range m.records {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k[len(prefix):])
		}
	}
	sort.Strings(keys)
	return keys
}

// Attribution returns who created and last updated a record.
func (m *MemoryStore) Attribution(kind, key string) (createdBy, updatedBy string, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[recordKey(kind, key)]
	return rec.createdBy, rec.updatedBy, ok
}

// Audits returns the recorded audit entries.
func (m *MemoryStore) Audits() []core.AuditEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.AuditEntry(nil), m.audits...)
}
