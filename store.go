/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/reactive"
	"github.com/suparena/entitycache/storagemodels"
)

// Store is the canonical keyed cache of one entity type.
//
// Every write replaces the map snapshot, so maps returned by Items and
// Get must be treated as read-only. Change notifications run synchronously
// on the writing goroutine once the write is visible.
type Store struct {
	name       string
	primaryKey string
	keyFormat  string
	fetch      Fetcher
	tokens     TokenGenerator
	logger     *slog.Logger
	metrics    *storeMetrics

	items   *reactive.Value[map[string]Entity]
	deleted *reactive.Value[KeySet]
	// changed ticks once per write, after items and deleted are both updated.
	changed *reactive.Value[uint64]
	// rev changes whenever the denormalized view may have changed.
	rev  *reactive.Value[uint64]
	view reactive.Observable[map[string]Entity]

	onNewElements   reactive.Signal[storagemodels.NewElements]
	onDelete        reactive.Signal[string]
	onUpdateAttempt reactive.Signal[storagemodels.UpdateAttempt]

	mu       sync.RWMutex
	bindings []*binding
	watched  map[*Store]bool
}

// NewStore creates an empty store. fetch may be nil, in which case Fetch
// fails with ErrNoLoader. NewStore panics when WithKeyFormat names a format
// strfmt does not know.
func NewStore(fetch Fetcher, opts ...StoreOption) *Store {
	o := applyStoreOptions("store", opts...)
	if o.keyFormat != "" && !strfmt.Default.ContainsName(o.keyFormat) {
		panic(fmt.Sprintf("entitycache: unknown key format %q", o.keyFormat))
	}

	s := &Store{
		name:       o.name,
		primaryKey: o.primaryKey,
		keyFormat:  o.keyFormat,
		fetch:      fetch,
		tokens:     o.tokens,
		logger:     o.logger.With("store", o.name),
		items:      reactive.New(map[string]Entity{}),
		deleted:    reactive.New(KeySet{}),
		changed:    reactive.New(uint64(0)),
		rev:        reactive.New(uint64(0)),
		watched:    make(map[*Store]bool),
	}
	if o.registerer != nil {
		m, err := newStoreMetrics(o.registerer, o.name)
		if err != nil {
			s.logger.Warn("store metrics disabled", "error", err)
		} else {
			s.metrics = m
		}
	}

	s.changed.Watch(s.bump)
	s.view = reactive.Select[uint64](s.rev, func(uint64) map[string]Entity {
		return s.denormalize()
	})
	return s
}

// Name returns the store name.
func (s *Store) Name() string { return s.name }

// PrimaryKey returns the primary-key field name.
func (s *Store) PrimaryKey() string { return s.primaryKey }

// Fetch loads the entity with the given key, writes it and returns its
// denormalized form. Loader failures leave the store untouched.
func (s *Store) Fetch(ctx context.Context, key string, args ...any) (Entity, error) {
	if s.fetch == nil {
		return nil, fmt.Errorf("%s: %w", s.name, errors.ErrNoLoader)
	}

	e, err := s.fetch(ctx, key, args...)
	s.metrics.load("fetch", err)
	if err != nil {
		return nil, errors.NewLoadError(s.name, "fetch", key, err)
	}
	if e == nil {
		return nil, errors.NewNotFoundError(s.name, key)
	}

	got, ok := e.Key(s.primaryKey)
	switch {
	case !ok:
		e = e.With(Entity{s.primaryKey: key})
	case got != key:
		return nil, errors.NewValidationError(s.primaryKey, fmt.Sprintf("loader returned %q when asked for %q", got, key))
	}
	if err := s.validateKey(key); err != nil {
		return nil, err
	}

	s.write([]Entity{e}, []string{key})
	s.onNewElements.Dispatch(storagemodels.NewElements{
		UpdateID: s.tokens.Generate(),
		Content:  []Entity{e},
	})

	out, _ := s.Get(key)
	return out, nil
}

// Save writes one entity under its own key.
func (s *Store) Save(e Entity) error {
	key, err := s.keyFor(e)
	if err != nil {
		return err
	}
	s.write([]Entity{e}, []string{key})
	s.onNewElements.Dispatch(storagemodels.NewElements{
		UpdateID: storagemodels.SaveToken,
		Content:  []Entity{e},
	})
	return nil
}

// Merge writes entities by key in a single change, tagged with a fresh token.
func (s *Store) Merge(entities []Entity) error {
	return s.merge(entities, s.tokens.Generate(), nil)
}

// MergeWithToken is Merge with an explicit update token.
func (s *Store) MergeWithToken(entities []Entity, updateID string) error {
	return s.merge(entities, updateID, nil)
}

func (s *Store) merge(entities []Entity, updateID string, trail []string) error {
	keys := make([]string, len(entities))
	for i, e := range entities {
		key, err := s.keyFor(e)
		if err != nil {
			return fmt.Errorf("merge item %d: %w", i, err)
		}
		keys[i] = key
	}
	if len(entities) == 0 {
		return nil
	}

	s.write(entities, keys)
	s.onNewElements.Dispatch(storagemodels.NewElements{
		UpdateID: updateID,
		Content:  entities,
		Trail:    trail,
	})
	return nil
}

// BatchUpdate shallow-merges each partial into the entity with the same key.
// Keys the store does not hold are skipped and signalled as update attempts.
func (s *Store) BatchUpdate(partials []Entity) {
	s.BatchUpdateWithToken(partials, s.tokens.Generate())
}

// BatchUpdateProperties is BatchUpdate.
func (s *Store) BatchUpdateProperties(partials []Entity) {
	s.BatchUpdate(partials)
}

// UpdateProperties shallow-merges one partial.
func (s *Store) UpdateProperties(partial Entity) {
	s.BatchUpdate([]Entity{partial})
}

// BatchUpdateWithToken is BatchUpdate with the update attempts tagged by updateID.
func (s *Store) BatchUpdateWithToken(partials []Entity, updateID string) {
	var (
		missed []storagemodels.UpdateAttempt
		n      int
		size   int
	)
	s.items.Modify(func(cur map[string]Entity) (map[string]Entity, bool) {
		var next map[string]Entity
		for _, p := range partials {
			key, ok := p.Key(s.primaryKey)
			if !ok {
				continue
			}
			src := cur
			if next != nil {
				src = next
			}
			e, ok := src[key]
			if !ok {
				missed = append(missed, storagemodels.UpdateAttempt{
					Key:      key,
					UpdateID: updateID,
					Apply:    applyPartial(p),
				})
				continue
			}
			if next == nil {
				next = copyItems(cur, 0)
			}
			next[key] = e.With(p)
			n++
		}
		if next == nil {
			return cur, false
		}
		size = len(next)
		return next, true
	})
	if n > 0 {
		s.metrics.wrote(n, size)
		s.commit()
	}
	for _, a := range missed {
		s.onUpdateAttempt.Dispatch(a)
	}
}

// Update replaces the entity under key with updater applied to a copy of it.
// An absent key leaves the store untouched and signals an update attempt.
// An updater returning nil leaves the entity as it is.
// updater runs while the store is locked and must not call back into it.
func (s *Store) Update(key string, updater func(Entity) Entity) {
	var held bool
	applied := s.items.Modify(func(cur map[string]Entity) (map[string]Entity, bool) {
		e, ok := cur[key]
		if !ok {
			return cur, false
		}
		held = true
		updated := updater(e.Clone())
		if updated == nil {
			return cur, false
		}
		if got, ok := updated.Key(s.primaryKey); !ok || got != key {
			updated = updated.With(Entity{s.primaryKey: e[s.primaryKey]})
		}
		next := copyItems(cur, 0)
		next[key] = updated
		return next, true
	})
	if applied {
		s.metrics.wrote(1, len(s.items.Get()))
		s.commit()
		return
	}
	if held {
		return
	}
	s.onUpdateAttempt.Dispatch(storagemodels.UpdateAttempt{
		Key:      key,
		UpdateID: s.tokens.Generate(),
		Apply:    updater,
	})
}

// Remove deletes the entity and tombstones its key.
func (s *Store) Remove(key string) {
	tombstoned := s.deleted.Modify(func(cur KeySet) (KeySet, bool) {
		if cur.Has(key) {
			return cur, false
		}
		next := make(KeySet, len(cur)+1)
		for k := range cur {
			next[k] = struct{}{}
		}
		next[key] = struct{}{}
		return next, true
	})
	var size int
	removed := s.items.Modify(func(cur map[string]Entity) (map[string]Entity, bool) {
		if _, ok := cur[key]; !ok {
			size = len(cur)
			return cur, false
		}
		next := make(map[string]Entity, len(cur))
		for k, v := range cur {
			if k != key {
				next[k] = v
			}
		}
		size = len(next)
		return next, true
	})
	s.metrics.removed(size)
	if tombstoned || removed {
		s.commit()
	}
	s.onDelete.Dispatch(key)
}

// Clear empties the store without tombstoning anything.
func (s *Store) Clear() {
	s.items.Set(map[string]Entity{})
	s.metrics.resized(0)
	s.commit()
}

// Get returns the denormalized entity stored under key.
func (s *Store) Get(key string) (Entity, bool) {
	e, ok := s.items.Get()[key]
	if !ok {
		return nil, false
	}
	return resolveEntity(e, s.resolutions()), true
}

// GetObservable mirrors the denormalized entity under key, nil when absent.
func (s *Store) GetObservable(key string) reactive.Observable[Entity] {
	return reactive.Select[uint64](s.rev, func(uint64) Entity {
		e, _ := s.Get(key)
		return e
	})
}

// Items returns the denormalized map. Without bindings it is the raw map.
// The view is recomputed on every read.
func (s *Store) Items() reactive.Observable[map[string]Entity] {
	return s.view
}

// Deleted returns the tombstone set.
func (s *Store) Deleted() reactive.Observable[KeySet] {
	return s.deleted.ReadOnly()
}

// IsDeleted reports whether key is tombstoned.
func (s *Store) IsDeleted(key string) bool {
	return s.deleted.Get().Has(key)
}

// OnNewElements fires after Fetch, Save and Merge wrote entities.
func (s *Store) OnNewElements() reactive.Events[storagemodels.NewElements] {
	return &s.onNewElements
}

// OnDelete fires with the key after Remove.
func (s *Store) OnDelete() reactive.Events[string] {
	return &s.onDelete
}

// OnUpdateAttempt fires when an update targets a key the store does not hold.
func (s *Store) OnUpdateAttempt() reactive.Events[storagemodels.UpdateAttempt] {
	return &s.onUpdateAttempt
}

func (s *Store) keyFor(e Entity) (string, error) {
	key, ok := e.Key(s.primaryKey)
	if !ok {
		return "", errors.NewValidationError(s.primaryKey, "missing primary key")
	}
	if err := s.validateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Store) validateKey(key string) error {
	if s.keyFormat == "" || strfmt.Default.Validates(s.keyFormat, key) {
		return nil
	}
	return errors.NewValidationError(s.primaryKey, fmt.Sprintf("%q is not a valid %s", key, s.keyFormat))
}

// write stores entities under keys in one change and lifts their tombstones.
func (s *Store) write(entities []Entity, keys []string) {
	var size int
	s.items.Update(func(cur map[string]Entity) map[string]Entity {
		next := copyItems(cur, len(entities))
		for i, e := range entities {
			next[keys[i]] = e.Clone()
		}
		size = len(next)
		return next
	})
	s.deleted.Modify(func(cur KeySet) (KeySet, bool) {
		hit := false
		for _, k := range keys {
			if cur.Has(k) {
				hit = true
				break
			}
		}
		if !hit {
			return cur, false
		}
		next := make(KeySet, len(cur))
		for k := range cur {
			next[k] = struct{}{}
		}
		for _, k := range keys {
			delete(next, k)
		}
		return next, true
	})
	s.metrics.wrote(len(entities), size)
	s.commit()
}

// commit publishes one write to the store's dependents.
func (s *Store) commit() {
	s.changed.Update(func(n uint64) uint64 { return n + 1 })
}

func (s *Store) bump() {
	s.rev.Update(func(n uint64) uint64 { return n + 1 })
}

func copyItems(m map[string]Entity, extra int) map[string]Entity {
	out := make(map[string]Entity, len(m)+extra)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func applyPartial(partial Entity) func(Entity) Entity {
	return func(e Entity) Entity { return e.With(partial) }
}
