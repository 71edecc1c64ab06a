/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package reactive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitycache/reactive"
)

func TestValue(t *testing.T) {
	t.Run("GetSetUpdate", func(t *testing.T) {
		v := reactive.New(1)
		assert.Equal(t, 1, v.Get())

		v.Set(2)
		assert.Equal(t, 2, v.Get())

		v.Update(func(n int) int { return n * 10 })
		assert.Equal(t, 20, v.Get())
	})

	t.Run("ZeroValue", func(t *testing.T) {
		var v reactive.Value[string]
		assert.Equal(t, "", v.Get())
		v.Set("set")
		assert.Equal(t, "set", v.Get())
	})

	t.Run("SubscribersSeeEveryChangeInOrder", func(t *testing.T) {
		v := reactive.New(0)
		var first, second []int
		v.Subscribe(func(n int) { first = append(first, n) })
		v.Subscribe(func(n int) { second = append(second, n*100) })

		v.Set(1)
		v.Set(2)
		v.Update(func(n int) int { return n + 1 })

		assert.Equal(t, []int{1, 2, 3}, first)
		assert.Equal(t, []int{100, 200, 300}, second)
	})

	t.Run("Unsubscribe", func(t *testing.T) {
		v := reactive.New(0)
		calls := 0
		unsubscribe := v.Subscribe(func(int) { calls++ })
		v.Set(1)
		unsubscribe()
		unsubscribe()
		v.Set(2)
		assert.Equal(t, 1, calls)
	})

	t.Run("ListenerMayWriteBack", func(t *testing.T) {
		v := reactive.New(0)
		v.Subscribe(func(n int) {
			if n < 3 {
				v.Set(n + 1)
			}
		})
		v.Set(1)
		assert.Equal(t, 3, v.Get())
	})

	t.Run("ReadOnlyView", func(t *testing.T) {
		v := reactive.New("a")
		ro := v.ReadOnly()
		var seen string
		ro.Subscribe(func(s string) { seen = s })
		v.Set("b")
		assert.Equal(t, "b", ro.Get())
		assert.Equal(t, "b", seen)
	})
}

func TestSelect(t *testing.T) {
	v := reactive.New(2)
	doubled := reactive.Select[int](v, func(n int) int { return n * 2 })

	assert.Equal(t, 4, doubled.Get())
	v.Set(5)
	assert.Equal(t, 10, doubled.Get(), "derived values are recomputed on read without subscribers")

	var seen []int
	unsubscribe := doubled.Subscribe(func(n int) { seen = append(seen, n) })
	v.Set(6)
	unsubscribe()
	v.Set(7)

	assert.Equal(t, []int{12}, seen)
	assert.Equal(t, 14, doubled.Get())
}

func TestCombine(t *testing.T) {
	a := reactive.New(1)
	b := reactive.New("x")
	joined := reactive.Combine([]reactive.Source{a, b}, func() string {
		return b.Get() + ":" + string(rune('0'+a.Get()))
	})

	assert.Equal(t, "x:1", joined.Get())

	var seen []string
	joined.Subscribe(func(s string) { seen = append(seen, s) })
	a.Set(2)
	b.Set("y")

	assert.Equal(t, []string{"x:2", "y:2"}, seen)
}

func TestDerivedChain(t *testing.T) {
	root := reactive.New(1)
	plusOne := reactive.Select[int](root, func(n int) int { return n + 1 })
	timesTwo := reactive.Select[int](plusOne, func(n int) int { return n * 2 })

	var seen []int
	unsubscribe := timesTwo.Subscribe(func(n int) { seen = append(seen, n) })
	root.Set(4)
	assert.Equal(t, []int{10}, seen)

	unsubscribe()
	root.Set(5)
	assert.Equal(t, []int{10}, seen)
	assert.Equal(t, 12, timesTwo.Get())
}

func TestDerivedReadAfterWriteIsConsistent(t *testing.T) {
	// diamond: both branches read the same root, observers must never see a mix
	root := reactive.New(1)
	left := reactive.Select[int](root, func(n int) int { return n })
	right := reactive.Select[int](root, func(n int) int { return -n })
	sum := reactive.Combine([]reactive.Source{left, right}, func() int {
		return left.Get() + right.Get()
	})

	var seen []int
	sum.Subscribe(func(n int) { seen = append(seen, n) })
	root.Set(7)
	root.Set(9)

	require.NotEmpty(t, seen)
	for _, n := range seen {
		assert.Equal(t, 0, n)
	}
}

func TestSignal(t *testing.T) {
	var s reactive.Signal[string]
	var got []string
	remove := s.Add(func(v string) { got = append(got, "a:"+v) })
	s.Add(func(v string) { got = append(got, "b:"+v) })

	s.Dispatch("one")
	remove()
	s.Dispatch("two")

	assert.Equal(t, []string{"a:one", "b:one", "b:two"}, got)
}

func TestModify(t *testing.T) {
	v := reactive.New(3)
	calls := 0
	v.Subscribe(func(int) { calls++ })

	changed := v.Modify(func(n int) (int, bool) { return n + 1, n > 5 })
	assert.False(t, changed)
	assert.Equal(t, 3, v.Get())
	assert.Equal(t, 0, calls)

	changed = v.Modify(func(n int) (int, bool) { return n + 1, n < 5 })
	assert.True(t, changed)
	assert.Equal(t, 4, v.Get())
	assert.Equal(t, 1, calls)
}

func TestModifyReleasesLockOnPanic(t *testing.T) {
	v := reactive.New(1)
	assert.Panics(t, func() {
		v.Modify(func(int) (int, bool) { panic("boom") })
	})
	v.Set(2)
	assert.Equal(t, 2, v.Get())
}
