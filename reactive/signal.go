/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package reactive

// Signal dispatches events to its listeners. The zero value is ready to use.
type Signal[T any] struct {
	subs listeners[T]
}

// Add registers fn and returns a function removing it.
func (s *Signal[T]) Add(fn func(T)) func() {
	return s.subs.add(fn)
}

// Dispatch calls every listener with v, in registration order.
func (s *Signal[T]) Dispatch(v T) {
	s.subs.notify(v)
}

// Events is the listening half of a Signal.
type Events[T any] interface {
	Add(fn func(T)) (remove func())
}
