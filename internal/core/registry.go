package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]TableDefinition)
	registryMu sync.RWMutex
)

// Register adds an import kind to the registry.
// Panics if the key is already registered or the definition is inconsistent.
func Register(def TableDefinition) {
	if err := def.check(); err != nil {
		panic(fmt.Sprintf("invalid table definition %q: %v", def.Info.Key, err))
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Info.Key))
	}
	registry[def.Info.Key] = def
}

// check catches definition mistakes at init time rather than mid-import.
func (d TableDefinition) check() error {
	if d.Info.Key == "" {
		return fmt.Errorf("missing key")
	}
	if d.Decode == nil {
		return fmt.Errorf("missing decoder")
	}
	for _, k := range d.Schema.KeyFields {
		if _, ok := d.Schema.Field(k); !ok {
			return fmt.Errorf("key field %q not in schema", k)
		}
	}
	if d.Mode == ModeFreshUpsert {
		f, ok := d.Schema.Field(d.FreshnessField)
		if !ok || f.Type != FieldDate {
			return fmt.Errorf("freshness field %q must be a date field", d.FreshnessField)
		}
	}
	if len(d.Sample) != 0 && len(d.Sample) != len(d.Schema.Fields) {
		return fmt.Errorf("sample has %d cells, schema has %d fields", len(d.Sample), len(d.Schema.Fields))
	}
	return nil
}

// Get returns a table definition by key.
// Returns false if not found.
func Get(key string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// Lookup is Get with an error suitable for returning to callers.
func Lookup(key string) (TableDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return TableDefinition{}, fmt.Errorf("%w: %q", ErrUnknownKind, key)
	}
	return def, nil
}

// All returns all registered definitions sorted by key.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// Keys returns the registered kind keys in sorted order.
func Keys() []string {
	defs := All()
	keys := make([]string, len(defs))
	for i, d := range defs {
		keys[i] = d.Info.Key
	}
	return keys
}

// TableCount returns the number of registered kinds.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered kinds.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]TableDefinition)
}
