/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/reactive"
	"github.com/suparena/entitycache/storagemodels"
)

// PaginatedStore caches one listing that grows page by page.
//
// List and ListMore calls made while a call of the same scope is running
// are dropped. Responses of calls superseded by a later List or by Clear
// are discarded.
type PaginatedStore[T any] struct {
	name    string
	lister  Lister[T]
	logger  *slog.Logger
	metrics *storeMetrics
	token   string

	cache        *reactive.Value[*Page[T]]
	fetching     *reactive.Value[bool]
	fetchingMore *reactive.Value[bool]
	rev          *reactive.Value[uint64]
	view         reactive.Observable[*Page[T]]

	// generation stamps List calls; Clear and List invalidate older responses.
	generation atomic.Uint64

	mu       sync.Mutex
	busy     bool
	busyMore bool
	ref      *reference
}

// NewPaginatedStore creates an empty, never listed store.
func NewPaginatedStore[T any](lister Lister[T], opts ...StoreOption) *PaginatedStore[T] {
	o := applyStoreOptions("list", opts...)
	p := &PaginatedStore[T]{
		name:         o.name,
		lister:       lister,
		logger:       o.logger.With("list", o.name),
		token:        o.tokens.Generate(),
		cache:        reactive.New[*Page[T]](nil),
		fetching:     reactive.New(false),
		fetchingMore: reactive.New(false),
		rev:          reactive.New(uint64(0)),
	}
	if o.registerer != nil {
		m, err := newStoreMetrics(o.registerer, o.name)
		if err != nil {
			p.logger.Warn("list metrics disabled", "error", err)
		} else {
			p.metrics = m
		}
	}
	p.cache.Watch(p.bump)
	p.view = reactive.Select[uint64](p.rev, func(uint64) *Page[T] {
		return p.current()
	})
	return p
}

// Name returns the list name.
func (p *PaginatedStore[T]) Name() string { return p.name }

// List loads the first page and replaces the cache with it.
func (p *PaginatedStore[T]) List(ctx context.Context, args ...any) error {
	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		p.logger.Debug("list dropped, already fetching")
		return nil
	}
	p.busy = true
	gen := p.generation.Add(1)
	p.mu.Unlock()

	p.fetching.Set(true)
	defer p.done(&p.busy, p.fetching)

	page, err := p.lister(ctx, 0, args...)
	p.metrics.load("list", err)
	if err != nil {
		return errors.NewLoadError(p.name, "list", "", err)
	}
	if page == nil {
		page = &Page[T]{}
	}

	applied := p.cache.Modify(func(cur *Page[T]) (*Page[T], bool) {
		return page, p.generation.Load() == gen
	})
	if !applied {
		p.logger.Warn("discarding stale list response", "page", page.Page)
		return nil
	}
	p.pushed(page)
	return nil
}

// ListMore loads the page after the cached one and appends its content.
// On a never listed store it is List.
func (p *PaginatedStore[T]) ListMore(ctx context.Context, args ...any) error {
	p.mu.Lock()
	if p.busy || p.busyMore {
		p.mu.Unlock()
		p.logger.Debug("listMore dropped, already fetching")
		return nil
	}
	cur := p.cache.Get()
	if cur == nil {
		p.mu.Unlock()
		return p.List(ctx, args...)
	}
	p.busyMore = true
	gen := p.generation.Load()
	p.mu.Unlock()

	p.fetchingMore.Set(true)
	defer p.done(&p.busyMore, p.fetchingMore)

	next, err := p.lister(ctx, cur.Page+1, args...)
	p.metrics.load("listMore", err)
	if err != nil {
		return errors.NewLoadError(p.name, "listMore", "", err)
	}
	if next == nil {
		next = &Page[T]{Page: cur.Page + 1, TotalPages: cur.TotalPages, TotalSize: cur.TotalSize}
	}

	var merged *Page[T]
	applied := p.cache.Modify(func(c *Page[T]) (*Page[T], bool) {
		if c == nil || c.Page != cur.Page || p.generation.Load() != gen {
			return c, false
		}
		merged = appendPage(c, next)
		return merged, true
	})
	if !applied {
		p.logger.Warn("discarding stale listMore response", "page", next.Page)
		return nil
	}
	p.pushed(merged)
	return nil
}

// Clear forgets the cached listing. Responses still in flight are discarded.
func (p *PaginatedStore[T]) Clear() {
	p.generation.Add(1)
	p.cache.Set(nil)
}

// Present overlays the listing onto ref and shallow-updates the entities
// ref already holds with every loaded page. It panics unless T is Entity.
func (p *PaginatedStore[T]) Present(ref *Store) *PaginatedStore[T] {
	p.attach(ref, PresentMode)
	return p
}

// Bind overlays the listing onto ref and merges every loaded page into it.
// It panics unless T is Entity.
func (p *PaginatedStore[T]) Bind(ref *Store) *PaginatedStore[T] {
	p.attach(ref, BindMode)
	return p
}

func (p *PaginatedStore[T]) attach(store *Store, mode BindingMode) {
	mustEntityPages[T]("PaginatedStore")
	if store == nil {
		panic("entitycache: PaginatedStore bound to a nil store")
	}
	p.mu.Lock()
	if p.ref != nil {
		p.mu.Unlock()
		panic("entitycache: PaginatedStore " + p.name + " already has a reference store")
	}
	p.ref = &reference{store: store, mode: mode, token: p.token}
	p.mu.Unlock()

	store.rev.Watch(p.bump)
	if mode == PresentMode {
		store.OnUpdateAttempt().Add(p.patch)
	}
	p.logger.Debug("reference store attached", "target", store.Name(), "mode", mode.String())
	p.bump()
}

// patch applies update attempts the reference store could not apply itself
// to the cached items with the same key.
func (p *PaginatedStore[T]) patch(a storagemodels.UpdateAttempt) {
	if a.UpdateID == p.token {
		return
	}
	pk := p.reference().store.PrimaryKey()
	p.cache.Modify(func(c *Page[T]) (*Page[T], bool) {
		next, changed := patchPage(entityPage(c), a, pk, p.logger)
		if !changed {
			return c, false
		}
		return typedPage[T](next), true
	})
}

// Items returns the cached listing, overlaid onto the reference store when
// one is attached. Nil means never listed.
func (p *PaginatedStore[T]) Items() reactive.Observable[*Page[T]] {
	return p.view
}

// PaginatedItems is Items.
func (p *PaginatedStore[T]) PaginatedItems() reactive.Observable[*Page[T]] {
	return p.view
}

// Fetching reports whether a List call is running.
func (p *PaginatedStore[T]) Fetching() reactive.Observable[bool] {
	return p.fetching.ReadOnly()
}

// FetchingMore reports whether a ListMore call is running.
func (p *PaginatedStore[T]) FetchingMore() reactive.Observable[bool] {
	return p.fetchingMore.ReadOnly()
}

// LastPage reports whether the cached listing holds the last page.
func (p *PaginatedStore[T]) LastPage() bool {
	return p.cache.Get().IsLast()
}

func (p *PaginatedStore[T]) current() *Page[T] {
	page := p.cache.Get()
	ref := p.reference()
	if ref == nil {
		return page
	}
	return typedPage[T](ref.overlay(entityPage(page)))
}

func (p *PaginatedStore[T]) pushed(page *Page[T]) {
	if ref := p.reference(); ref != nil {
		ref.push(entityPage(page), p.logger)
	}
}

func (p *PaginatedStore[T]) reference() *reference {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ref
}

func (p *PaginatedStore[T]) done(flag *bool, v *reactive.Value[bool]) {
	p.mu.Lock()
	*flag = false
	p.mu.Unlock()
	v.Set(false)
}

func (p *PaginatedStore[T]) bump() {
	p.rev.Update(func(n uint64) uint64 { return n + 1 })
}
