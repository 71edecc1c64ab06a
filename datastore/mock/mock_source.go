/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory datastore.Source for testing
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/suparena/entitycache/datastore"
	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/storagemodels"
)

var (
	_ datastore.Source = (*Source)(nil)
	_ datastore.Writer = (*Source)(nil)
)

// Calls counts the operations served by a Source.
type Calls struct {
	Get   int
	Query int
	Put   int
}

// Source is a map-backed datastore.Source. Listings are ordered by key.
type Source struct {
	mu             sync.RWMutex
	data           map[string]storagemodels.Entity
	primaryKey     string
	partitionField string
	pageSize       int32
	getError       error
	queryError     error
	putError       error
	calls          Calls
}

// New creates an empty Source keyed by "id" and partitioned by "partition".
func New() *Source {
	return &Source{
		data:           make(map[string]storagemodels.Entity),
		primaryKey:     storagemodels.DefaultPrimaryKey,
		partitionField: "partition",
		pageSize:       storagemodels.DefaultSourceOptions().PageSize,
	}
}

// WithPrimaryKey sets the field entities are keyed by
func (m *Source) WithPrimaryKey(field string) *Source {
	m.primaryKey = field
	return m
}

// WithPartitionField sets the field compared with ListParams.Partition
func (m *Source) WithPartitionField(field string) *Source {
	m.partitionField = field
	return m
}

// WithPageSize sets the page size used when ListParams has none
func (m *Source) WithPageSize(size int32) *Source {
	m.pageSize = size
	return m
}

// WithGetError makes GetOne return an error
func (m *Source) WithGetError(err error) *Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getError = err
	return m
}

// WithQueryError makes QueryPage return an error
func (m *Source) WithQueryError(err error) *Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryError = err
	return m
}

// WithPutError makes Put return an error
func (m *Source) WithPutError(err error) *Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putError = err
	return m
}

// SetData replaces the content of the source
func (m *Source) SetData(entities ...storagemodels.Entity) *Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]storagemodels.Entity, len(entities))
	for _, e := range entities {
		if key, ok := e.Key(m.primaryKey); ok {
			m.data[key] = e.Clone()
		}
	}
	return m
}

// GetOne returns a copy of the entity, or nil when absent
func (m *Source) GetOne(_ context.Context, key string) (storagemodels.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Get++

	if m.getError != nil {
		return nil, m.getError
	}
	e, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return e.Clone(), nil
}

// QueryPage returns one page of the entities whose partition field equals
// params.Partition, or of every entity when the partition is empty
func (m *Source) QueryPage(_ context.Context, params storagemodels.ListParams, page int) (*storagemodels.Page[storagemodels.Entity], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Query++

	if m.queryError != nil {
		return nil, m.queryError
	}
	if page < 0 {
		return nil, errors.NewValidationError("page", "must not be negative")
	}

	keys := make([]string, 0, len(m.data))
	for k, e := range m.data {
		if params.Partition != "" {
			if p, _ := e[m.partitionField].(string); p != params.Partition {
				continue
			}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if params.Ascending != nil && !*params.Ascending {
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	}

	size := params.PageSize
	if size <= 0 {
		size = m.pageSize
	}
	start := page * int(size)
	end := start + int(size)
	if start > len(keys) {
		start = len(keys)
	}
	if end > len(keys) {
		end = len(keys)
	}

	content := make([]storagemodels.Entity, 0, end-start)
	for _, k := range keys[start:end] {
		content = append(content, m.data[k].Clone())
	}
	return &storagemodels.Page[storagemodels.Entity]{
		Content:    content,
		Page:       page,
		TotalPages: datastore.TotalPages(len(keys), size),
		TotalSize:  len(keys),
	}, nil
}

// Put stores a copy of the entity
func (m *Source) Put(_ context.Context, e storagemodels.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Put++

	if m.putError != nil {
		return m.putError
	}
	key, ok := e.Key(m.primaryKey)
	if !ok {
		return errors.NewValidationError(m.primaryKey, "unable to extract key from entity")
	}
	m.data[key] = e.Clone()
	return nil
}

// Calls returns the operation counters
func (m *Source) Calls() Calls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Len returns the number of entities held
func (m *Source) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
