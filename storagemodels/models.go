/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"strconv"
)

// DefaultPrimaryKey is the primary-key field used when a store does not configure one.
const DefaultPrimaryKey = "id"

// Entity is a structured record identified by one of its fields.
// Nested objects are map[string]any values, lists are []any values.
type Entity map[string]any

// Key returns the string form of the value held in the primary-key field.
func (e Entity) Key(primaryKey string) (string, bool) {
	if e == nil {
		return "", false
	}
	return KeyOf(e[primaryKey])
}

// Clone returns a shallow copy of the entity.
func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	out := make(Entity, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// With returns a shallow copy of the entity with the fields of partial applied.
func (e Entity) With(partial Entity) Entity {
	out := make(Entity, len(e)+len(partial))
	for k, v := range e {
		out[k] = v
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}

// AsEntity reports whether v is an object-shaped value and returns it as an Entity.
func AsEntity(v any) (Entity, bool) {
	switch tv := v.(type) {
	case Entity:
		return tv, tv != nil
	case map[string]any:
		return Entity(tv), tv != nil
	default:
		return nil, false
	}
}

// KeyOf converts a primary-key value into its map key form.
// Strings are used as-is, integers and floats are formatted without exponent.
func KeyOf(v any) (string, bool) {
	switch tv := v.(type) {
	case string:
		return tv, tv != ""
	case int:
		return strconv.Itoa(tv), true
	case int32:
		return strconv.FormatInt(int64(tv), 10), true
	case int64:
		return strconv.FormatInt(tv, 10), true
	case uint64:
		return strconv.FormatUint(tv, 10), true
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64), true
	case fmt.Stringer:
		s := tv.String()
		return s, s != ""
	default:
		return "", false
	}
}

// KeySet is a set of primary-key values.
type KeySet map[string]struct{}

// Has reports whether key is in the set.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Page is one chunk of a paginated listing.
// Content for page n is the n-th page of an externally defined ordering.
type Page[T any] struct {
	Content    []T `json:"content"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	TotalSize  int `json:"totalSize"`
}

// Clone returns a copy of the page with its own content slice.
func (p *Page[T]) Clone() *Page[T] {
	if p == nil {
		return nil
	}
	out := *p
	out.Content = append([]T(nil), p.Content...)
	return &out
}

// IsLast reports whether the page is the last one of the listing.
func (p *Page[T]) IsLast() bool {
	if p == nil {
		return false
	}
	return p.Page+1 >= p.TotalPages
}

// ListParams describes a listing independently of the backend serving it.
type ListParams struct {
	// Partition narrows the listing, e.g. the parent id of a keyed list.
	Partition string `yaml:"partition" json:"partition"`
	// PageSize is the number of items per page. Zero means the source default.
	PageSize int32 `yaml:"pageSize" json:"pageSize"`
	// IndexName optionally selects a secondary index.
	IndexName string `yaml:"indexName" json:"indexName"`
	// Ascending sets the sort direction. Nil keeps the backend default.
	Ascending *bool `yaml:"ascending" json:"ascending"`
}

// WithPartition returns a copy of the params targeting another partition.
func (p ListParams) WithPartition(partition string) ListParams {
	p.Partition = partition
	return p
}
