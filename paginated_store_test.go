/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitycache"
	"github.com/suparena/entitycache/errors"
)

func stringPages(_ context.Context, page int, _ ...any) (*entitycache.Page[string], error) {
	return &entitycache.Page[string]{
		Content:    []string{fmt.Sprintf("Item 1-%d", page), fmt.Sprintf("Item 2-%d", page)},
		Page:       page,
		TotalPages: 4,
		TotalSize:  8,
	}, nil
}

func bookPages(_ context.Context, page int, _ ...any) (*entitycache.Page[entitycache.Entity], error) {
	return &entitycache.Page[entitycache.Entity]{
		Content: []entitycache.Entity{
			{"id": fmt.Sprintf("1-%d", page), "title": fmt.Sprintf("Item 1-%d", page)},
			{"id": fmt.Sprintf("2-%d", page), "title": fmt.Sprintf("Item 2-%d", page)},
		},
		Page:       page,
		TotalPages: 2,
		TotalSize:  4,
	}, nil
}

func TestPaginatedStoreConcatenatesPages(t *testing.T) {
	ctx := context.Background()
	books := entitycache.NewPaginatedStore(stringPages)
	observed := books.PaginatedItems()

	assert.Nil(t, observed.Get())
	require.NoError(t, books.List(ctx))
	assert.Len(t, observed.Get().Content, 2)
	assert.False(t, books.LastPage())

	for i := 0; i < 3; i++ {
		require.NoError(t, books.ListMore(ctx))
	}
	page := observed.Get()
	require.Len(t, page.Content, 8)
	assert.Equal(t, "Item 2-3", page.Content[7])
	assert.Equal(t, []string{
		"Item 1-0", "Item 2-0", "Item 1-1", "Item 2-1",
		"Item 1-2", "Item 2-2", "Item 1-3", "Item 2-3",
	}, page.Content)
	assert.Equal(t, 3, page.Page)
	assert.True(t, books.LastPage())

	require.NoError(t, books.List(ctx))
	assert.Equal(t, []string{"Item 1-0", "Item 2-0"}, observed.Get().Content)

	books.Clear()
	assert.Nil(t, observed.Get())
}

func TestPaginatedStoreListMoreOnEmptyCacheLists(t *testing.T) {
	var pages []int
	books := entitycache.NewPaginatedStore(func(ctx context.Context, page int, args ...any) (*entitycache.Page[string], error) {
		pages = append(pages, page)
		return stringPages(ctx, page, args...)
	})

	require.NoError(t, books.ListMore(context.Background()))
	assert.Equal(t, []int{0}, pages)
	assert.Equal(t, []string{"Item 1-0", "Item 2-0"}, books.Items().Get().Content)
}

func TestPaginatedStoreLoaderErrors(t *testing.T) {
	ctx := context.Background()
	boom := stderrors.New("boom")
	fail := false
	books := entitycache.NewPaginatedStore(func(ctx context.Context, page int, args ...any) (*entitycache.Page[string], error) {
		if fail {
			return nil, boom
		}
		return stringPages(ctx, page, args...)
	}, entitycache.WithName("books"))

	require.NoError(t, books.List(ctx))
	fail = true

	err := books.ListMore(ctx)
	assert.ErrorIs(t, err, boom)
	assert.True(t, errors.IsLoadError(err))
	assert.False(t, books.FetchingMore().Get())

	err = books.List(ctx)
	assert.ErrorIs(t, err, boom)
	assert.False(t, books.Fetching().Get())

	assert.Len(t, books.Items().Get().Content, 2)
}

func TestPaginatedStoreDropsReentrantCalls(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	calls := 0
	books := entitycache.NewPaginatedStore(func(ctx context.Context, page int, args ...any) (*entitycache.Page[string], error) {
		calls++
		started <- struct{}{}
		<-release
		return stringPages(ctx, page, args...)
	})

	done := make(chan error)
	go func() { done <- books.List(ctx) }()
	<-started

	assert.True(t, books.Fetching().Get())
	assert.NoError(t, books.List(ctx))
	assert.NoError(t, books.ListMore(ctx))

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, calls)
	assert.False(t, books.Fetching().Get())
}

func TestPaginatedStoreDiscardsStaleListMore(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	books := entitycache.NewPaginatedStore(func(ctx context.Context, page int, args ...any) (*entitycache.Page[string], error) {
		if page > 1 {
			started <- struct{}{}
			<-release
		}
		return stringPages(ctx, page, args...)
	})
	require.NoError(t, books.List(ctx))
	require.NoError(t, books.ListMore(ctx))

	done := make(chan error)
	go func() { done <- books.ListMore(ctx) }()
	<-started

	// a new listing supersedes the page still loading
	require.NoError(t, books.List(ctx))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"Item 1-0", "Item 2-0"}, books.Items().Get().Content)
	assert.False(t, books.FetchingMore().Get())
}

func TestPaginatedStoreDiscardsResponsesAfterClear(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	books := entitycache.NewPaginatedStore(func(ctx context.Context, page int, args ...any) (*entitycache.Page[string], error) {
		started <- struct{}{}
		<-release
		return stringPages(ctx, page, args...)
	})

	done := make(chan error)
	go func() { done <- books.List(ctx) }()
	<-started
	books.Clear()
	close(release)
	require.NoError(t, <-done)

	assert.Nil(t, books.Items().Get())
}

func TestPaginatedStoreBind(t *testing.T) {
	ctx := context.Background()
	books := entitycache.NewStore(fetchedBook)
	list := entitycache.NewPaginatedStore(bookPages).Bind(books)

	observed := list.PaginatedItems()
	first := books.GetObservable("1-0")
	second := books.GetObservable("2-0")

	assert.Nil(t, first.Get())
	_, err := books.Fetch(ctx, "2-0")
	require.NoError(t, err)
	assert.Equal(t, "Fetched", second.Get()["title"])

	require.NoError(t, list.List(ctx))
	assert.Equal(t, "Item 1-0", first.Get()["title"])
	assert.Equal(t, "Item 1-0", observed.Get().Content[0]["title"])
	assert.Equal(t, "Item 2-0", second.Get()["title"])

	require.NoError(t, list.ListMore(ctx))
	assert.Equal(t, "Item 2-0", second.Get()["title"])

	_, err = books.Fetch(ctx, "2-0")
	require.NoError(t, err)
	assert.Equal(t, "Fetched", second.Get()["title"])
	assert.Equal(t, "Fetched", observed.Get().Content[1]["title"])
	assert.Len(t, observed.Get().Content, 4)

	books.Remove("2-0")
	assert.Nil(t, second.Get())
	assert.Len(t, observed.Get().Content, 3)

	_, err = books.Fetch(ctx, "2-0")
	require.NoError(t, err)
	assert.Len(t, observed.Get().Content, 4)
}

func TestPaginatedStorePresent(t *testing.T) {
	ctx := context.Background()
	books := entitycache.NewStore(func(_ context.Context, key string, _ ...any) (entitycache.Entity, error) {
		return entitycache.Entity{"id": key, "title": "Fetched", "author": "Mr Smith"}, nil
	})
	list := entitycache.NewPaginatedStore(bookPages).Present(books)

	observed := list.PaginatedItems()
	first := books.GetObservable("1-0")
	second := books.GetObservable("2-0")

	_, err := books.Fetch(ctx, "2-0")
	require.NoError(t, err)
	require.NoError(t, list.List(ctx))

	// listed items are never created in the canonical store
	assert.Nil(t, first.Get())
	assert.Equal(t, "Item 1-0", observed.Get().Content[0]["title"])
	assert.Equal(t, "Item 2-0", second.Get()["title"])

	require.NoError(t, list.ListMore(ctx))
	assert.Equal(t, "Item 2-0", second.Get()["title"])
	assert.Equal(t, "Mr Smith", second.Get()["author"])

	_, err = books.Fetch(ctx, "2-0")
	require.NoError(t, err)
	assert.Equal(t, "Fetched", second.Get()["title"])
	assert.Equal(t, "Fetched", observed.Get().Content[1]["title"])
	assert.Len(t, observed.Get().Content, 4)
	assert.Len(t, books.Items().Get(), 1)

	books.Remove("2-0")
	assert.Len(t, observed.Get().Content, 3)
	_, err = books.Fetch(ctx, "2-0")
	require.NoError(t, err)
	assert.Len(t, observed.Get().Content, 4)
}

func TestPaginatedStorePatchesItemsUnknownToReference(t *testing.T) {
	ctx := context.Background()
	books := entitycache.NewStore(nil)
	list := entitycache.NewPaginatedStore(bookPages).Present(books)
	require.NoError(t, list.List(ctx))

	books.Update("1-0", func(e entitycache.Entity) entitycache.Entity {
		e["title"] = "Patched"
		return e
	})
	books.Update("2-0", func(entitycache.Entity) entitycache.Entity {
		panic("broken updater")
	})
	books.UpdateProperties(entitycache.Entity{"id": "2-0", "read": true})

	content := list.Items().Get().Content
	require.Len(t, content, 2)
	assert.Equal(t, "Patched", content[0]["title"])
	assert.Equal(t, "Item 2-0", content[1]["title"])
	assert.Equal(t, true, content[1]["read"])
	assert.Empty(t, books.Items().Get())
}

func TestPaginatedStoreNotifiesSubscribers(t *testing.T) {
	ctx := context.Background()
	books := entitycache.NewStore(fetchedBook)
	list := entitycache.NewPaginatedStore(bookPages).Present(books)

	var lengths []int
	unsubscribe := list.Items().Subscribe(func(p *entitycache.Page[entitycache.Entity]) {
		if p != nil {
			lengths = append(lengths, len(p.Content))
		}
	})
	defer unsubscribe()

	require.NoError(t, list.List(ctx))
	_, err := books.Fetch(ctx, "1-0")
	require.NoError(t, err)
	books.Remove("1-0")

	require.NotEmpty(t, lengths)
	assert.Equal(t, 2, lengths[0])
	assert.Equal(t, 1, lengths[len(lengths)-1])
}

func TestPaginatedStoreRemoveNeverShowsStaleCopy(t *testing.T) {
	ctx := context.Background()
	books := entitycache.NewStore(fetchedBook)
	list := entitycache.NewPaginatedStore(bookPages).Present(books)
	require.NoError(t, list.List(ctx))
	_, err := books.Fetch(ctx, "1-0")
	require.NoError(t, err)

	var seen [][]string
	unsubscribe := list.PaginatedItems().Subscribe(func(p *entitycache.Page[entitycache.Entity]) {
		var keys []string
		for _, e := range p.Content {
			key, _ := e.Key("id")
			keys = append(keys, key)
		}
		seen = append(seen, keys)
	})
	defer unsubscribe()

	books.Remove("1-0")

	require.NotEmpty(t, seen)
	for _, keys := range seen {
		assert.NotContains(t, keys, "1-0")
	}
	assert.Equal(t, []string{"2-0"}, seen[len(seen)-1])
}

func TestPaginatedStoreBindingNeedsEntities(t *testing.T) {
	list := entitycache.NewPaginatedStore(stringPages)
	assert.Panics(t, func() { list.Present(entitycache.NewStore(nil)) })
}
