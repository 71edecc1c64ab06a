/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache

import (
	"fmt"
	"log/slog"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/storagemodels"
)

// reference is the canonical store a list overlays onto.
type reference struct {
	store *Store
	mode  BindingMode
	// token tags writes made by the list so its own update attempts are ignored.
	token string
}

// mustEntityPages panics unless T is Entity. Lists of plain values cannot
// be overlaid onto a store.
func mustEntityPages[T any](kind string) {
	var zero *Page[T]
	if _, ok := any(zero).(*Page[Entity]); !ok {
		panic(fmt.Sprintf("entitycache: %s.Present and %s.Bind need Entity items, got %T", kind, kind, *new(T)))
	}
}

func entityPage[T any](p *Page[T]) *Page[Entity] {
	return any(p).(*Page[Entity])
}

func typedPage[T any](p *Page[Entity]) *Page[T] {
	return any(p).(*Page[T])
}

// appendPage concatenates next after the content of cur and takes the
// metadata of next.
func appendPage[T any](cur, next *Page[T]) *Page[T] {
	content := make([]T, 0, len(cur.Content)+len(next.Content))
	content = append(content, cur.Content...)
	content = append(content, next.Content...)
	return &Page[T]{
		Content:    content,
		Page:       next.Page,
		TotalPages: next.TotalPages,
		TotalSize:  next.TotalSize,
	}
}

// push writes the content of a freshly replaced page into the reference store.
func (r *reference) push(page *Page[Entity], logger *slog.Logger) {
	if r == nil || page == nil || len(page.Content) == 0 {
		return
	}
	switch r.mode {
	case BindMode:
		if err := r.store.MergeWithToken(page.Content, r.token); err != nil {
			logger.Warn("merging page into reference store failed", "target", r.store.Name(), "error", err)
		}
	case PresentMode:
		r.store.BatchUpdateWithToken(page.Content, r.token)
	}
}

// overlay is PresentItems against the current state of the reference store.
func (r *reference) overlay(page *Page[Entity]) *Page[Entity] {
	return PresentItems(r.store.Items().Get(), page, r.store.Deleted().Get(), r.store.PrimaryKey())
}

// patchPage applies an update attempt to the cached items with its key.
// An item whose update panics is left unchanged.
func patchPage(page *Page[Entity], a storagemodels.UpdateAttempt, primaryKey string, logger *slog.Logger) (*Page[Entity], bool) {
	if page == nil || a.Apply == nil {
		return page, false
	}
	var out *Page[Entity]
	for i, item := range page.Content {
		if key, ok := item.Key(primaryKey); !ok || key != a.Key {
			continue
		}
		patched, err := applySafely(a, item)
		if err != nil {
			logger.Warn("cached item left unchanged", "key", a.Key, "error", err)
			continue
		}
		if out == nil {
			out = page.Clone()
		}
		out.Content[i] = patched
	}
	if out == nil {
		return page, false
	}
	return out, true
}

func applySafely(a storagemodels.UpdateAttempt, item Entity) (patched Entity, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewPatchError(a.Key, r)
		}
	}()
	patched = a.Apply(item.Clone())
	if patched == nil {
		return nil, errors.NewPatchError(a.Key, "update returned nil")
	}
	return patched, nil
}
