/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache

import (
	"context"

	"github.com/suparena/entitycache/storagemodels"
)

// Entity is a structured record keyed by its primary-key field.
type Entity = storagemodels.Entity

// Page is one chunk of a paginated listing.
type Page[T any] = storagemodels.Page[T]

// KeySet is a set of tombstoned keys.
type KeySet = storagemodels.KeySet

// DefaultPrimaryKey is used when a store does not configure one.
const DefaultPrimaryKey = storagemodels.DefaultPrimaryKey

// Fetcher loads one entity by key. A nil entity with a nil error means the
// key does not exist.
type Fetcher func(ctx context.Context, key string, args ...any) (Entity, error)

// Lister loads one page of a listing. Pages are zero-based.
type Lister[T any] func(ctx context.Context, page int, args ...any) (*Page[T], error)

// KeyedLister loads one page of the listing identified by key.
type KeyedLister[K comparable, T any] func(ctx context.Context, key K, page int, args ...any) (*Page[T], error)
