/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/reactive"
	"github.com/suparena/entitycache/storagemodels"
)

// MappedStore caches one growing listing per external key, for instance the
// reviews of each book. Keys are independent of each other.
type MappedStore[K comparable, T any] struct {
	name    string
	lister  KeyedLister[K, T]
	logger  *slog.Logger
	metrics *storeMetrics
	token   string

	cache        *reactive.Value[map[K]*Page[T]]
	fetching     *reactive.Value[map[K]bool]
	fetchingMore *reactive.Value[map[K]bool]
	rev          *reactive.Value[uint64]

	mu       sync.Mutex
	busy     map[K]bool
	busyMore map[K]bool
	// latest holds the stamp of the newest List per key; seq issues stamps.
	latest map[K]uint64
	seq    uint64
	ref    *reference
}

// NewMappedStore creates an empty store.
func NewMappedStore[K comparable, T any](lister KeyedLister[K, T], opts ...StoreOption) *MappedStore[K, T] {
	o := applyStoreOptions("mapped-list", opts...)
	m := &MappedStore[K, T]{
		name:         o.name,
		lister:       lister,
		logger:       o.logger.With("list", o.name),
		token:        o.tokens.Generate(),
		cache:        reactive.New(map[K]*Page[T]{}),
		fetching:     reactive.New(map[K]bool{}),
		fetchingMore: reactive.New(map[K]bool{}),
		rev:          reactive.New(uint64(0)),
		busy:         make(map[K]bool),
		busyMore:     make(map[K]bool),
		latest:       make(map[K]uint64),
	}
	if o.registerer != nil {
		sm, err := newStoreMetrics(o.registerer, o.name)
		if err != nil {
			m.logger.Warn("list metrics disabled", "error", err)
		} else {
			m.metrics = sm
		}
	}
	m.cache.Watch(m.bump)
	return m
}

// Name returns the list name.
func (m *MappedStore[K, T]) Name() string { return m.name }

// List loads the first page for key and replaces the listing of key.
func (m *MappedStore[K, T]) List(ctx context.Context, key K, args ...any) error {
	m.mu.Lock()
	if m.busy[key] {
		m.mu.Unlock()
		m.logger.Debug("list dropped, already fetching", "key", fmt.Sprint(key))
		return nil
	}
	m.busy[key] = true
	m.seq++
	stamp := m.seq
	m.latest[key] = stamp
	m.mu.Unlock()

	setFlag(m.fetching, key, true)
	defer m.done(m.busy, m.fetching, key)

	page, err := m.lister(ctx, key, 0, args...)
	m.metrics.load("list", err)
	if err != nil {
		return errors.NewLoadError(m.name, "list", fmt.Sprint(key), err)
	}
	if page == nil {
		page = &Page[T]{}
	}

	applied := m.cache.Modify(func(cur map[K]*Page[T]) (map[K]*Page[T], bool) {
		if !m.isLatest(key, stamp) {
			return cur, false
		}
		return withPage(cur, key, page), true
	})
	if !applied {
		m.logger.Warn("discarding stale list response", "key", fmt.Sprint(key))
		return nil
	}
	m.pushed(page)
	return nil
}

// ListMore loads the page after the cached one for key and appends it.
// For a key never listed it is List.
func (m *MappedStore[K, T]) ListMore(ctx context.Context, key K, args ...any) error {
	m.mu.Lock()
	if m.busy[key] || m.busyMore[key] {
		m.mu.Unlock()
		m.logger.Debug("listMore dropped, already fetching", "key", fmt.Sprint(key))
		return nil
	}
	m.busyMore[key] = true
	stamp := m.latest[key]
	m.mu.Unlock()

	// read after the stamp: cache writers take mu while holding the cache, and
	// a List finishing from here on changes the stamp
	cur := m.cache.Get()[key]
	if cur == nil {
		m.mu.Lock()
		delete(m.busyMore, key)
		m.mu.Unlock()
		return m.List(ctx, key, args...)
	}

	setFlag(m.fetchingMore, key, true)
	defer m.done(m.busyMore, m.fetchingMore, key)

	next, err := m.lister(ctx, key, cur.Page+1, args...)
	m.metrics.load("listMore", err)
	if err != nil {
		return errors.NewLoadError(m.name, "listMore", fmt.Sprint(key), err)
	}
	if next == nil {
		next = &Page[T]{Page: cur.Page + 1, TotalPages: cur.TotalPages, TotalSize: cur.TotalSize}
	}

	var merged *Page[T]
	applied := m.cache.Modify(func(all map[K]*Page[T]) (map[K]*Page[T], bool) {
		c := all[key]
		if c == nil || c.Page != cur.Page || !m.isLatest(key, stamp) {
			return all, false
		}
		merged = appendPage(c, next)
		return withPage(all, key, merged), true
	})
	if !applied {
		m.logger.Warn("discarding stale listMore response", "key", fmt.Sprint(key))
		return nil
	}
	m.pushed(merged)
	return nil
}

// Clear forgets every listing.
func (m *MappedStore[K, T]) Clear() {
	m.mu.Lock()
	m.latest = make(map[K]uint64)
	m.mu.Unlock()
	m.cache.Set(map[K]*Page[T]{})
}

// ClearKey forgets the listing of one key.
func (m *MappedStore[K, T]) ClearKey(key K) {
	m.mu.Lock()
	delete(m.latest, key)
	m.mu.Unlock()
	m.cache.Modify(func(cur map[K]*Page[T]) (map[K]*Page[T], bool) {
		if _, ok := cur[key]; !ok {
			return cur, false
		}
		next := make(map[K]*Page[T], len(cur))
		for k, v := range cur {
			if k != key {
				next[k] = v
			}
		}
		return next, true
	})
}

// Present overlays every listing onto ref and shallow-updates the entities
// ref already holds with every loaded page. It panics unless T is Entity.
func (m *MappedStore[K, T]) Present(ref *Store) *MappedStore[K, T] {
	m.attach(ref, PresentMode)
	return m
}

// Bind overlays every listing onto ref and merges every loaded page into it.
// It panics unless T is Entity.
func (m *MappedStore[K, T]) Bind(ref *Store) *MappedStore[K, T] {
	m.attach(ref, BindMode)
	return m
}

func (m *MappedStore[K, T]) attach(store *Store, mode BindingMode) {
	mustEntityPages[T]("MappedStore")
	if store == nil {
		panic("entitycache: MappedStore bound to a nil store")
	}
	m.mu.Lock()
	if m.ref != nil {
		m.mu.Unlock()
		panic("entitycache: MappedStore " + m.name + " already has a reference store")
	}
	m.ref = &reference{store: store, mode: mode, token: m.token}
	m.mu.Unlock()

	store.rev.Watch(m.bump)
	if mode == PresentMode {
		store.OnUpdateAttempt().Add(m.patch)
	}
	m.logger.Debug("reference store attached", "target", store.Name(), "mode", mode.String())
	m.bump()
}

// patch applies update attempts of the reference store to every listing
// holding an item with the attempted key.
func (m *MappedStore[K, T]) patch(a storagemodels.UpdateAttempt) {
	if a.UpdateID == m.token {
		return
	}
	pk := m.reference().store.PrimaryKey()
	m.cache.Modify(func(cur map[K]*Page[T]) (map[K]*Page[T], bool) {
		var next map[K]*Page[T]
		for k, page := range cur {
			patched, changed := patchPage(entityPage(page), a, pk, m.logger)
			if !changed {
				continue
			}
			if next == nil {
				next = make(map[K]*Page[T], len(cur))
				for kk, vv := range cur {
					next[kk] = vv
				}
			}
			next[k] = typedPage[T](patched)
		}
		if next == nil {
			return cur, false
		}
		return next, true
	})
}

// GetObservableItems returns the listing of key, overlaid onto the reference
// store when one is attached. Nil means never listed.
func (m *MappedStore[K, T]) GetObservableItems(key K) reactive.Observable[*Page[T]] {
	return reactive.Select[uint64](m.rev, func(uint64) *Page[T] {
		return m.current(key)
	})
}

// GetFetching reports whether a List call for key is running.
func (m *MappedStore[K, T]) GetFetching(key K) reactive.Observable[bool] {
	return reactive.Select[map[K]bool](m.fetching, func(flags map[K]bool) bool {
		return flags[key]
	})
}

// GetFetchingMore reports whether a ListMore call for key is running.
func (m *MappedStore[K, T]) GetFetchingMore(key K) reactive.Observable[bool] {
	return reactive.Select[map[K]bool](m.fetchingMore, func(flags map[K]bool) bool {
		return flags[key]
	})
}

// LastPage reports whether the listing of key holds its last page.
func (m *MappedStore[K, T]) LastPage(key K) bool {
	return m.cache.Get()[key].IsLast()
}

// Keys returns the keys currently listed.
func (m *MappedStore[K, T]) Keys() []K {
	all := m.cache.Get()
	keys := make([]K, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	return keys
}

func (m *MappedStore[K, T]) current(key K) *Page[T] {
	page := m.cache.Get()[key]
	ref := m.reference()
	if ref == nil {
		return page
	}
	return typedPage[T](ref.overlay(entityPage(page)))
}

func (m *MappedStore[K, T]) pushed(page *Page[T]) {
	if ref := m.reference(); ref != nil {
		ref.push(entityPage(page), m.logger)
	}
}

func (m *MappedStore[K, T]) reference() *reference {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ref
}

func (m *MappedStore[K, T]) isLatest(key K, stamp uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest[key] == stamp
}

func (m *MappedStore[K, T]) done(flags map[K]bool, v *reactive.Value[map[K]bool], key K) {
	m.mu.Lock()
	delete(flags, key)
	m.mu.Unlock()
	setFlag(v, key, false)
}

func (m *MappedStore[K, T]) bump() {
	m.rev.Update(func(n uint64) uint64 { return n + 1 })
}

func withPage[K comparable, T any](cur map[K]*Page[T], key K, page *Page[T]) map[K]*Page[T] {
	next := make(map[K]*Page[T], len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	next[key] = page
	return next
}

func setFlag[K comparable](v *reactive.Value[map[K]bool], key K, on bool) {
	v.Modify(func(cur map[K]bool) (map[K]bool, bool) {
		if cur[key] == on {
			return cur, false
		}
		next := make(map[K]bool, len(cur)+1)
		for k, f := range cur {
			if f {
				next[k] = true
			}
		}
		if on {
			next[key] = true
		} else {
			delete(next, key)
		}
		return next, true
	})
}
