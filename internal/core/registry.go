package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ParseFunc turns a staged dataset file into candidate records.
// A returned error means the whole dataset could not be read.
type ParseFunc func(ctx context.Context, path string) ([]Candidate, error)

// DatasetDefinition contains everything needed to import one dataset type.
type DatasetDefinition struct {
	Key   string     // Unique identifier: "rruff_minerals"
	Label string     // Display name: "RRUFF IMA mineral list"
	Kind  RecordKind // Kind of candidates Parse produces
	Parse ParseFunc
}

var (
	registry   = make(map[string]DatasetDefinition)
	registryMu sync.RWMutex
)

// Register adds a dataset definition to the registry.
// Panics if a dataset with the same key is already registered.
func Register(def DatasetDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Key]; exists {
		panic(fmt.Sprintf("dataset already registered: %s", def.Key))
	}
	if def.Parse == nil {
		panic(fmt.Sprintf("dataset %s has no parse function", def.Key))
	}

	registry[def.Key] = def
}

// Get returns a dataset definition by key.
// Returns false if not found.
func Get(key string) (DatasetDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered dataset definitions sorted by key.
func All() []DatasetDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]DatasetDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}
