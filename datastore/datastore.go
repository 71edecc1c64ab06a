/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/entitycache"
	"github.com/suparena/entitycache/registry"
	"github.com/suparena/entitycache/storagemodels"
)

// Source is the backing data of a store.
type Source interface {
	// GetOne returns the entity with the given key, or nil, nil when absent.
	GetOne(ctx context.Context, key string) (storagemodels.Entity, error)

	// QueryPage returns the zero-based page of the listing described by params.
	QueryPage(ctx context.Context, params storagemodels.ListParams, page int) (*storagemodels.Page[storagemodels.Entity], error)
}

// Writer is implemented by sources that accept writes, for seeding and tooling.
type Writer interface {
	Put(ctx context.Context, e storagemodels.Entity) error
}

// Fetcher adapts src into a store loader.
func Fetcher(src Source) entitycache.Fetcher {
	return func(ctx context.Context, key string, _ ...any) (entitycache.Entity, error) {
		return src.GetOne(ctx, key)
	}
}

// Lister adapts src into a paginated list loader. A non-empty string as
// first argument overrides the partition of params.
func Lister(src Source, params storagemodels.ListParams) entitycache.Lister[entitycache.Entity] {
	return func(ctx context.Context, page int, args ...any) (*entitycache.Page[entitycache.Entity], error) {
		p := params
		if len(args) > 0 {
			if partition, ok := args[0].(string); ok && partition != "" {
				p = p.WithPartition(partition)
			}
		}
		return src.QueryPage(ctx, p, page)
	}
}

// KeyedLister adapts src into a mapped list loader. The key fills the
// macros of the partition template, or is the partition when there are none.
func KeyedLister(src Source, params storagemodels.ListParams) entitycache.KeyedLister[string, entitycache.Entity] {
	return func(ctx context.Context, key string, page int, _ ...any) (*entitycache.Page[entitycache.Entity], error) {
		return src.QueryPage(ctx, params.WithPartition(PartitionFor(params.Partition, key)), page)
	}
}

// PartitionFor expands a partition template with key.
func PartitionFor(template, key string) string {
	if template == "" || !registry.HasMacro(template) {
		return key
	}
	return registry.ExpandKey(template, key)
}

// TotalPages returns the number of pages needed for total items.
func TotalPages(total int, pageSize int32) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + int(pageSize) - 1) / int(pageSize)
}
