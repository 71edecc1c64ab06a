/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/storagemodels"
)

// BindingMode selects whether a binding writes into its target store.
type BindingMode int

const (
	// BindMode merges sub-entities found at the path into the target.
	BindMode BindingMode = iota
	// PresentMode only reads from the target.
	PresentMode
)

func (m BindingMode) String() string {
	switch m {
	case BindMode:
		return "bind"
	case PresentMode:
		return "present"
	default:
		return fmt.Sprintf("BindingMode(%d)", int(m))
	}
}

// ParseBindingMode parses "bind" or "present".
func ParseBindingMode(s string) (BindingMode, error) {
	switch strings.ToLower(s) {
	case "bind", "":
		return BindMode, nil
	case "present":
		return PresentMode, nil
	default:
		return 0, errors.NewValidationError("mode", fmt.Sprintf("unknown binding mode %q", s))
	}
}

var bindingSeq atomic.Uint64

// binding is one path -> target edge of the reference graph.
type binding struct {
	id     string
	path   Path
	target *Store
	mode   BindingMode
}

// BindProperty resolves references at path against target and merges every
// referenced sub-entity seen in new elements into target.
func (s *Store) BindProperty(path string, target *Store) error {
	return s.addBinding(path, target, BindMode)
}

// PresentProperty resolves references at path against target without ever
// writing into it.
func (s *Store) PresentProperty(path string, target *Store) error {
	return s.addBinding(path, target, PresentMode)
}

func (s *Store) addBinding(raw string, target *Store, mode BindingMode) error {
	if target == nil {
		return errors.NewValidationError("target", "binding target must not be nil")
	}
	p, err := ParsePath(raw)
	if err != nil {
		return err
	}
	b := &binding{
		id:     fmt.Sprintf("%s#%d:%s", s.name, bindingSeq.Add(1), raw),
		path:   p,
		target: target,
		mode:   mode,
	}

	s.mu.Lock()
	s.bindings = append(s.bindings, b)
	first := !s.watched[target]
	s.watched[target] = true
	s.mu.Unlock()

	// own writes are watched from construction
	if first && target != s {
		target.changed.Watch(s.bump)
	}
	if mode == BindMode {
		s.onNewElements.Add(func(ev storagemodels.NewElements) {
			s.propagate(b, ev)
		})
	}

	s.logger.Debug("binding added", "path", raw, "target", target.name, "mode", mode.String())
	s.bump()
	return nil
}

// propagate merges the sub-entities of ev found at the binding path into the
// binding target. Writes caused by the binding itself are not propagated again.
func (s *Store) propagate(b *binding, ev storagemodels.NewElements) {
	if ev.UpdateID == b.path.String() || ev.Visited(b.id) {
		s.logger.Debug("ignoring echo", "path", b.path.String(), "updateID", ev.UpdateID)
		return
	}
	found := b.path.extract(ev.Content, b.target.primaryKey)
	if len(found) == 0 {
		return
	}
	trail := make([]string, 0, len(ev.Trail)+1)
	trail = append(trail, ev.Trail...)
	trail = append(trail, b.id)
	if err := b.target.merge(found, b.path.String(), trail); err != nil {
		s.logger.Warn("binding propagation failed", "path", b.path.String(), "target", b.target.name, "error", err)
	}
}

// resolution is a binding with its target state captured for one read.
type resolution struct {
	path       Path
	refs       map[string]Entity
	deleted    KeySet
	primaryKey string
}

func (s *Store) resolutions() []resolution {
	s.mu.RLock()
	bindings := s.bindings
	s.mu.RUnlock()
	if len(bindings) == 0 {
		return nil
	}
	out := make([]resolution, len(bindings))
	for i, b := range bindings {
		// canonical maps, so self and mutual bindings never recurse
		out[i] = resolution{
			path:       b.path,
			refs:       b.target.items.Get(),
			deleted:    b.target.deleted.Get(),
			primaryKey: b.target.primaryKey,
		}
	}
	return out
}

// substitute replaces an embedded reference by the canonical entity, by nil
// when the key is tombstoned, and keeps it otherwise.
func (r resolution) substitute(ref Entity) (any, bool) {
	key, ok := ref.Key(r.primaryKey)
	if !ok {
		return ref, false
	}
	if canonical, ok := r.refs[key]; ok {
		return map[string]any(canonical), true
	}
	if r.deleted.Has(key) {
		return nil, true
	}
	return ref, false
}

func resolveEntity(e Entity, rs []resolution) Entity {
	if len(rs) == 0 {
		return e
	}
	var v any = e
	for _, r := range rs {
		v, _ = r.path.rewrite(v, r.substitute)
	}
	return v.(Entity)
}

func (s *Store) denormalize() map[string]Entity {
	items := s.items.Get()
	rs := s.resolutions()
	if len(rs) == 0 {
		return items
	}
	out := make(map[string]Entity, len(items))
	for k, e := range items {
		out[k] = resolveEntity(e, rs)
	}
	return out
}
