/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package reactive

import "sync"

// Select derives a read-only value from src.
func Select[T, R any](src Observable[T], fn func(T) R) Observable[R] {
	return Combine([]Source{src}, func() R { return fn(src.Get()) })
}

// Combine derives a read-only value from several inputs. compute reads the
// inputs itself and must be pure: it runs on every Get and after every
// change of any input while the result has subscribers.
func Combine[R any](inputs []Source, compute func() R) Observable[R] {
	return &derived[R]{
		inputs:  append([]Source(nil), inputs...),
		compute: compute,
	}
}

type derived[R any] struct {
	inputs  []Source
	compute func() R
	subs    listeners[R]

	mu       sync.Mutex
	unwatch  []func()
	attached bool
}

// Get recomputes the value from the current inputs.
func (d *derived[R]) Get() R {
	return d.compute()
}

// Subscribe attaches to the inputs on the first subscriber and detaches
// after the last one leaves.
func (d *derived[R]) Subscribe(fn func(R)) func() {
	remove := d.subs.add(fn)
	d.attach()
	return func() {
		remove()
		d.detachIfIdle()
	}
}

// Watch implements Source.
func (d *derived[R]) Watch(fn func()) func() {
	return d.Subscribe(func(R) { fn() })
}

func (d *derived[R]) attach() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.attached {
		return
	}
	d.attached = true
	for _, in := range d.inputs {
		d.unwatch = append(d.unwatch, in.Watch(d.changed))
	}
}

func (d *derived[R]) detachIfIdle() {
	d.mu.Lock()
	if !d.attached || d.subs.len() > 0 {
		d.mu.Unlock()
		return
	}
	unwatch := d.unwatch
	d.unwatch = nil
	d.attached = false
	d.mu.Unlock()

	for _, fn := range unwatch {
		fn()
	}
}

func (d *derived[R]) changed() {
	if d.subs.len() == 0 {
		return
	}
	d.subs.notify(d.compute())
}
