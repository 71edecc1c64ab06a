/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/storagemodels"
)

var (
	indexMapRegistry = make(map[string]map[string]string)
	mu               sync.RWMutex
)

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// RegisterIndexMap associates a store name with its key templates (PK, SK, etc.).
func RegisterIndexMap(store string, idxMap map[string]string) {
	copied := make(map[string]string, len(idxMap))
	for k, v := range idxMap {
		copied[k] = v
	}

	mu.Lock()
	defer mu.Unlock()
	indexMapRegistry[store] = copied
}

// GetIndexMap retrieves the index map of a store, if any.
func GetIndexMap(store string) (map[string]string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := indexMapRegistry[store]
	return m, ok
}

// MustGetIndexMap is GetIndexMap returning ErrNoIndexMap when absent.
func MustGetIndexMap(store string) (map[string]string, error) {
	m, ok := GetIndexMap(store)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrNoIndexMap, store)
	}
	return m, nil
}

// UnregisterIndexMap removes the index map of a store.
func UnregisterIndexMap(store string) {
	mu.Lock()
	defer mu.Unlock()
	delete(indexMapRegistry, store)
}

// Stores returns the sorted names of stores with an index map.
func Stores() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(indexMapRegistry))
	for name := range indexMapRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExpandKey replaces every macro of template, such as "{id}", with key.
// A template without macros is returned unchanged.
func ExpandKey(template, key string) string {
	return macroPattern.ReplaceAllLiteralString(template, key)
}

// ExpandIndexMap applies ExpandKey to every template of the index map.
func ExpandIndexMap(indexMap map[string]string, key string) map[string]string {
	expanded := make(map[string]string, len(indexMap))
	for field, template := range indexMap {
		expanded[field] = ExpandKey(template, key)
	}
	return expanded
}

// ExpandEntity replaces each macro with the entity field it names.
// Missing or non-scalar fields expand to the empty string.
func ExpandEntity(indexMap map[string]string, e storagemodels.Entity) map[string]string {
	expanded := make(map[string]string, len(indexMap))
	for field, template := range indexMap {
		expanded[field] = macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			name := strings.Trim(macro, "{}")
			if v, ok := e[name].(bool); ok {
				return fmt.Sprintf("%v", v)
			}
			s, _ := storagemodels.KeyOf(e[name])
			return s
		})
	}
	return expanded
}

// HasMacro reports whether template contains at least one macro.
func HasMacro(template string) bool {
	return macroPattern.MatchString(template)
}
