/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package reactive

import "sync"

// Source is anything whose changes can be watched without knowing its type.
type Source interface {
	// Watch registers fn to be called after every change.
	Watch(fn func()) (unwatch func())
}

// Observable is a read-only reactive value.
type Observable[T any] interface {
	Source
	// Get returns the current value.
	Get() T
	// Subscribe registers fn to be called with the new value after every change.
	Subscribe(fn func(T)) (unsubscribe func())
}

// Value is a writable reactive container. The zero value holds the zero T.
type Value[T any] struct {
	mu    sync.RWMutex
	value T
	subs  listeners[T]
}

// New returns a Value holding v.
func New[T any](v T) *Value[T] {
	return &Value[T]{value: v}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set replaces the value and notifies subscribers.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	v.value = x
	v.mu.Unlock()
	v.subs.notify(x)
}

// Update replaces the value with fn applied to the current one.
// fn runs under the value's lock and must not touch v.
func (v *Value[T]) Update(fn func(T) T) {
	v.Modify(func(cur T) (T, bool) { return fn(cur), true })
}

// Modify is Update with a veto: when fn reports false the value is kept and
// nobody is notified. It returns whether the value changed.
// fn runs under the value's lock and must not touch v.
func (v *Value[T]) Modify(fn func(T) (T, bool)) bool {
	x, changed := v.modify(fn)
	if changed {
		v.subs.notify(x)
	}
	return changed
}

func (v *Value[T]) modify(fn func(T) (T, bool)) (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	x, changed := fn(v.value)
	if changed {
		v.value = x
	}
	return x, changed
}

// Subscribe registers fn to be called with every new value.
func (v *Value[T]) Subscribe(fn func(T)) func() {
	return v.subs.add(fn)
}

// Watch implements Source.
func (v *Value[T]) Watch(fn func()) func() {
	return v.subs.add(func(T) { fn() })
}

// ReadOnly returns a view of v without write access.
func (v *Value[T]) ReadOnly() Observable[T] {
	return readOnly[T]{v}
}

type readOnly[T any] struct {
	v *Value[T]
}

func (r readOnly[T]) Get() T                      { return r.v.Get() }
func (r readOnly[T]) Subscribe(fn func(T)) func() { return r.v.Subscribe(fn) }
func (r readOnly[T]) Watch(fn func()) func()      { return r.v.Watch(fn) }

// listeners is an ordered, concurrency-safe list of callbacks.
type listeners[T any] struct {
	mu      sync.Mutex
	nextID  uint64
	entries []listener[T]
}

type listener[T any] struct {
	id uint64
	fn func(T)
}

func (l *listeners[T]) add(fn func(T)) func() {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, listener[T]{id: id, fn: fn})
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { l.remove(id) })
	}
}

func (l *listeners[T]) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e.id == id {
			// copy so that snapshots taken by notify stay intact
			entries := make([]listener[T], 0, len(l.entries)-1)
			entries = append(entries, l.entries[:i]...)
			l.entries = append(entries, l.entries[i+1:]...)
			return
		}
	}
}

func (l *listeners[T]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *listeners[T]) notify(x T) {
	l.mu.Lock()
	snapshot := l.entries
	l.mu.Unlock()
	for _, e := range snapshot {
		e.fn(x)
	}
}
