/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache

import (
	"sort"
	"sync"

	"github.com/suparena/entitycache/errors"
)

// Storage is a thread-safe registry of named stores and lists.
// Stores, lists and mapped lists live in separate namespaces.
type Storage struct {
	mu     sync.RWMutex
	stores map[string]*Store
	lists  map[string]*PaginatedStore[Entity]
	mapped map[string]*MappedStore[string, Entity]
}

// NewStorage creates an empty registry.
func NewStorage() *Storage {
	return &Storage{
		stores: make(map[string]*Store),
		lists:  make(map[string]*PaginatedStore[Entity]),
		mapped: make(map[string]*MappedStore[string, Entity]),
	}
}

// RegisterStore registers s under name.
func (sm *Storage) RegisterStore(name string, s *Store) error {
	return register(&sm.mu, sm.stores, "store", name, s)
}

// Store returns the store registered under name.
func (sm *Storage) Store(name string) (*Store, error) {
	return lookup(&sm.mu, sm.stores, "store", name)
}

// RegisterList registers a paginated list under name.
func (sm *Storage) RegisterList(name string, l *PaginatedStore[Entity]) error {
	return register(&sm.mu, sm.lists, "list", name, l)
}

// List returns the paginated list registered under name.
func (sm *Storage) List(name string) (*PaginatedStore[Entity], error) {
	return lookup(&sm.mu, sm.lists, "list", name)
}

// RegisterMappedList registers a keyed list under name.
func (sm *Storage) RegisterMappedList(name string, l *MappedStore[string, Entity]) error {
	return register(&sm.mu, sm.mapped, "mapped list", name, l)
}

// MappedList returns the keyed list registered under name.
func (sm *Storage) MappedList(name string) (*MappedStore[string, Entity], error) {
	return lookup(&sm.mu, sm.mapped, "mapped list", name)
}

// Names returns the sorted names of stores, lists and mapped lists.
func (sm *Storage) Names() (stores, lists, mapped []string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sortedKeys(sm.stores), sortedKeys(sm.lists), sortedKeys(sm.mapped)
}

func register[V any](mu *sync.RWMutex, m map[string]V, kind, name string, v V) error {
	if name == "" {
		return errors.NewValidationError("name", kind+" name must not be empty")
	}
	mu.Lock()
	defer mu.Unlock()

	if _, exists := m[name]; exists {
		return errors.NewAlreadyExistsError(kind, name)
	}
	m[name] = v
	return nil
}

func lookup[V any](mu *sync.RWMutex, m map[string]V, kind, name string) (V, error) {
	mu.RLock()
	defer mu.RUnlock()

	v, exists := m[name]
	if !exists {
		var zero V
		return zero, errors.NewNotFoundError(kind, name)
	}
	return v, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
