/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitycache"
	"github.com/suparena/entitycache/errors"
)

func TestStorage(t *testing.T) {
	t.Run("BasicOperations", func(t *testing.T) {
		sm := entitycache.NewStorage()
		books := entitycache.NewStore(nil)

		require.NoError(t, sm.RegisterStore("books", books))
		got, err := sm.Store("books")
		require.NoError(t, err)
		assert.Same(t, books, got)

		err = sm.RegisterStore("books", entitycache.NewStore(nil))
		assert.True(t, errors.IsAlreadyExists(err))

		_, err = sm.Store("authors")
		assert.True(t, errors.IsNotFound(err))

		assert.True(t, errors.IsValidationError(sm.RegisterStore("", books)))
	})

	t.Run("SeparateNamespaces", func(t *testing.T) {
		sm := entitycache.NewStorage()
		require.NoError(t, sm.RegisterStore("books", entitycache.NewStore(nil)))
		require.NoError(t, sm.RegisterList("books", entitycache.NewPaginatedStore(bookPages)))
		require.NoError(t, sm.RegisterMappedList("books", entitycache.NewMappedStore(reviewPages)))

		_, err := sm.List("books")
		require.NoError(t, err)
		_, err = sm.MappedList("books")
		require.NoError(t, err)
		_, err = sm.MappedList("reviews")
		assert.True(t, errors.IsNotFound(err))

		stores, lists, mapped := sm.Names()
		assert.Equal(t, []string{"books"}, stores)
		assert.Equal(t, []string{"books"}, lists)
		assert.Equal(t, []string{"books"}, mapped)
	})

	t.Run("ConcurrentRegistration", func(t *testing.T) {
		sm := entitycache.NewStorage()
		names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

		var wg sync.WaitGroup
		for _, name := range names {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				assert.NoError(t, sm.RegisterStore(name, entitycache.NewStore(nil, entitycache.WithName(name))))
			}(name)
		}
		wg.Wait()

		stores, _, _ := sm.Names()
		assert.Equal(t, names, stores)
	})
}
