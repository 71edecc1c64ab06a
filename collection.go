/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache

import (
	"context"
	"strings"

	"github.com/suparena/entitycache/reactive"
)

// Capability is a set of operations a Collection supports.
type Capability uint8

const (
	CanFetch Capability = 1 << iota
	CanList
	CanSave
)

// Has reports whether every capability of x is in c.
func (c Capability) Has(x Capability) bool {
	return c&x == x
}

func (c Capability) String() string {
	var parts []string
	if c.Has(CanFetch) {
		parts = append(parts, "fetch")
	}
	if c.Has(CanList) {
		parts = append(parts, "list")
	}
	if c.Has(CanSave) {
		parts = append(parts, "save")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Fetchable loads single entities.
type Fetchable interface {
	Fetch(ctx context.Context, key string, args ...any) (Entity, error)
	GetObservable(key string) reactive.Observable[Entity]
}

// Listable loads a paginated listing.
type Listable interface {
	List(ctx context.Context, args ...any) error
	ListMore(ctx context.Context, args ...any) error
	PaginatedItems() reactive.Observable[*Page[Entity]]
	Fetching() reactive.Observable[bool]
	FetchingMore() reactive.Observable[bool]
	LastPage() bool
}

// Saveable writes entities.
type Saveable interface {
	Save(e Entity) error
	Merge(entities []Entity) error
	Remove(key string)
}

// CollectionConfig enumerates the loaders of a Collection. A nil loader
// leaves the matching capability out.
type CollectionConfig struct {
	Name       string
	PrimaryKey string
	Fetch      Fetcher
	List       Lister[Entity]
	// ReadOnly leaves out CanSave.
	ReadOnly bool
	Options  []StoreOption
}

// Collection is a canonical store plus an optional bound listing, exposing
// only the capabilities it was configured with.
type Collection struct {
	caps  Capability
	store *Store
	list  *PaginatedStore[Entity]
}

// NewCollection builds a collection from cfg.
func NewCollection(cfg CollectionConfig) *Collection {
	opts := append([]StoreOption{WithName(cfg.Name), WithPrimaryKey(cfg.PrimaryKey)}, cfg.Options...)
	c := &Collection{store: NewStore(cfg.Fetch, opts...)}
	if cfg.Fetch != nil {
		c.caps |= CanFetch
	}
	if cfg.List != nil {
		listOpts := append(opts, WithName(c.store.Name()+"/list"))
		c.list = NewPaginatedStore(cfg.List, listOpts...).Bind(c.store)
		c.caps |= CanList
	}
	if !cfg.ReadOnly {
		c.caps |= CanSave
	}
	return c
}

// Capabilities returns the capability set.
func (c *Collection) Capabilities() Capability { return c.caps }

// Store returns the canonical store backing the collection.
func (c *Collection) Store() *Store { return c.store }

// Fetchable returns the fetch capability.
func (c *Collection) Fetchable() (Fetchable, bool) {
	if !c.caps.Has(CanFetch) {
		return nil, false
	}
	return c.store, true
}

// Listable returns the list capability.
func (c *Collection) Listable() (Listable, bool) {
	if !c.caps.Has(CanList) {
		return nil, false
	}
	return c.list, true
}

// Saveable returns the save capability.
func (c *Collection) Saveable() (Saveable, bool) {
	if !c.caps.Has(CanSave) {
		return nil, false
	}
	return c.store, true
}
