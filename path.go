/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache

import (
	"strings"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/storagemodels"
)

// Path is a tokenized dotted field path such as "infos.author".
// Lists met along the path are descended element by element.
type Path struct {
	segments []string
}

// ParsePath splits a dotted path into segments.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, errors.NewValidationError("path", "must not be empty")
	}
	segments := strings.Split(s, ".")
	for _, seg := range segments {
		if seg == "" {
			return Path{}, errors.NewValidationError("path", "empty segment in "+s)
		}
	}
	return Path{segments: segments}, nil
}

// String returns the dotted form.
func (p Path) String() string {
	return strings.Join(p.segments, ".")
}

// Segments returns a copy of the path segments.
func (p Path) Segments() []string {
	return append([]string(nil), p.segments...)
}

// refResolver substitutes one embedded reference. It returns the new value
// and whether it differs from the embedded one.
type refResolver func(ref storagemodels.Entity) (any, bool)

// rewrite returns v with every value at the path passed through fn.
// Values are copied only along changed branches.
func (p Path) rewrite(v any, fn refResolver) (any, bool) {
	return rewriteAt(v, p.segments, fn)
}

func rewriteAt(v any, segments []string, fn refResolver) (any, bool) {
	switch tv := v.(type) {
	case storagemodels.Entity:
		out, changed := rewriteField(tv, segments, fn)
		return storagemodels.Entity(out), changed
	case map[string]any:
		return rewriteField(tv, segments, fn)
	case []any:
		return rewriteList(tv, func(el any) (any, bool) { return rewriteAt(el, segments, fn) })
	default:
		return v, false
	}
}

func rewriteField(m map[string]any, segments []string, fn refResolver) (map[string]any, bool) {
	sub, ok := m[segments[0]]
	if !ok || sub == nil {
		return m, false
	}
	var (
		next    any
		changed bool
	)
	if len(segments) == 1 {
		next, changed = resolveRefs(sub, fn)
	} else {
		next, changed = rewriteAt(sub, segments[1:], fn)
	}
	if !changed {
		return m, false
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	out[segments[0]] = next
	return out, true
}

func resolveRefs(v any, fn refResolver) (any, bool) {
	if list, ok := v.([]any); ok {
		return rewriteList(list, func(el any) (any, bool) { return resolveRefs(el, fn) })
	}
	ref, ok := storagemodels.AsEntity(v)
	if !ok {
		return v, false
	}
	return fn(ref)
}

func rewriteList(list []any, fn func(any) (any, bool)) ([]any, bool) {
	var out []any
	for i, el := range list {
		next, changed := fn(el)
		if !changed {
			continue
		}
		if out == nil {
			out = append([]any(nil), list...)
		}
		out[i] = next
	}
	if out == nil {
		return list, false
	}
	return out, true
}

// extract collects the object values found at the path in every entity.
// Objects without a primary key are skipped.
func (p Path) extract(entities []storagemodels.Entity, primaryKey string) []storagemodels.Entity {
	var found []storagemodels.Entity
	for _, e := range entities {
		found = collectAt(map[string]any(e), p.segments, primaryKey, found)
	}
	return found
}

func collectAt(v any, segments []string, primaryKey string, found []storagemodels.Entity) []storagemodels.Entity {
	if len(segments) == 0 {
		if list, ok := v.([]any); ok {
			for _, el := range list {
				found = collectAt(el, nil, primaryKey, found)
			}
			return found
		}
		if e, ok := storagemodels.AsEntity(v); ok {
			if _, ok := e.Key(primaryKey); ok {
				found = append(found, e)
			}
		}
		return found
	}
	switch tv := v.(type) {
	case []any:
		for _, el := range tv {
			found = collectAt(el, segments, primaryKey, found)
		}
	default:
		if m, ok := storagemodels.AsEntity(v); ok {
			if sub, ok := m[segments[0]]; ok && sub != nil {
				found = collectAt(sub, segments[1:], primaryKey, found)
			}
		}
	}
	return found
}
