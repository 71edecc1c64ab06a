/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package reactive provides the synchronous reactive value primitive the
// cache is built on.
//
// A Value holds a current value that can be read, written and observed:
//
//	count := reactive.New(0)
//	unsubscribe := count.Subscribe(func(n int) { fmt.Println("count is", n) })
//	count.Set(5)                                    // prints "count is 5"
//	count.Update(func(n int) int { return n + 1 })  // prints "count is 6"
//	unsubscribe()
//
// Derived values recompute from their inputs on every read and notify their
// subscribers whenever any input changes:
//
//	doubled := reactive.Select[int](count, func(n int) int { return n * 2 })
//	sum := reactive.Combine([]reactive.Source{count, doubled}, func() int {
//	    return count.Get() + doubled.Get()
//	})
//
// A Signal dispatches events that are not part of any value:
//
//	var deleted reactive.Signal[string]
//	deleted.Add(func(key string) { ... })
//	deleted.Dispatch("dracula")
//
// # Ordering
//
// Notifications are delivered synchronously, on the goroutine that performed
// the write, after the write is visible and after every internal lock has
// been released. Listeners may therefore write to other values, or to the
// value that notified them. Listeners run in registration order.
package reactive
