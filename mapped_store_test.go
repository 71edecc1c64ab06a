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

func reviewTitles(_ context.Context, bookID string, page int, _ ...any) (*entitycache.Page[string], error) {
	return &entitycache.Page[string]{
		Content: []string{
			fmt.Sprintf("%s: Item 1-%d", bookID, page),
			fmt.Sprintf("%s: Item 2-%d", bookID, page),
		},
		Page: page,
	}, nil
}

func reviewPages(_ context.Context, bookID string, page int, _ ...any) (*entitycache.Page[entitycache.Entity], error) {
	return &entitycache.Page[entitycache.Entity]{
		Content: []entitycache.Entity{
			{"_id": fmt.Sprintf("%s: 1-%d", bookID, page), "title": fmt.Sprintf("%s: Item 1-%d", bookID, page)},
			{"_id": fmt.Sprintf("%s: 2-%d", bookID, page), "title": fmt.Sprintf("%s: Item 2-%d", bookID, page)},
		},
		Page:       page,
		TotalPages: 2,
		TotalSize:  4,
	}, nil
}

func TestMappedStoreConcatenatesPagesPerKey(t *testing.T) {
	ctx := context.Background()
	reviews := entitycache.NewMappedStore(reviewTitles)
	observed := reviews.GetObservableItems("Dracula")

	assert.Nil(t, observed.Get())
	require.NoError(t, reviews.List(ctx, "Gargantua"))
	assert.Nil(t, observed.Get())

	require.NoError(t, reviews.List(ctx, "Dracula"))
	assert.Len(t, observed.Get().Content, 2)
	for i := 0; i < 3; i++ {
		require.NoError(t, reviews.ListMore(ctx, "Dracula"))
	}
	require.Len(t, observed.Get().Content, 8)
	assert.Equal(t, "Dracula: Item 2-3", observed.Get().Content[7])

	require.NoError(t, reviews.List(ctx, "Dracula"))
	assert.Len(t, observed.Get().Content, 2)
	assert.Len(t, reviews.GetObservableItems("Gargantua").Get().Content, 2)
	assert.ElementsMatch(t, []string{"Dracula", "Gargantua"}, reviews.Keys())

	reviews.ClearKey("Gargantua")
	assert.Nil(t, reviews.GetObservableItems("Gargantua").Get())
	assert.NotNil(t, observed.Get())

	reviews.Clear()
	assert.Nil(t, observed.Get())
}

func TestMappedStoreKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	reviews := entitycache.NewMappedStore(func(ctx context.Context, key string, page int, args ...any) (*entitycache.Page[string], error) {
		if key == "slow" {
			started <- struct{}{}
			<-release
		}
		return reviewTitles(ctx, key, page, args...)
	})

	done := make(chan error)
	go func() { done <- reviews.List(ctx, "slow") }()
	<-started

	assert.True(t, reviews.GetFetching("slow").Get())
	assert.False(t, reviews.GetFetching("fast").Get())
	require.NoError(t, reviews.List(ctx, "fast"))
	assert.Len(t, reviews.GetObservableItems("fast").Get().Content, 2)

	// same key while in flight is dropped
	require.NoError(t, reviews.List(ctx, "slow"))

	close(release)
	require.NoError(t, <-done)
	assert.False(t, reviews.GetFetching("slow").Get())
	assert.Len(t, reviews.GetObservableItems("slow").Get().Content, 2)
}

func TestMappedStoreLoaderErrorResetsFlags(t *testing.T) {
	boom := stderrors.New("boom")
	reviews := entitycache.NewMappedStore(func(context.Context, string, int, ...any) (*entitycache.Page[string], error) {
		return nil, boom
	}, entitycache.WithName("reviews"))

	err := reviews.ListMore(context.Background(), "Dracula")
	assert.ErrorIs(t, err, boom)
	assert.True(t, errors.IsLoadError(err))

	var le *errors.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "Dracula", le.Key)
	assert.False(t, reviews.GetFetching("Dracula").Get())
	assert.False(t, reviews.GetFetchingMore("Dracula").Get())
	assert.Nil(t, reviews.GetObservableItems("Dracula").Get())
}

func TestMappedStoreDiscardsStaleListMore(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	reviews := entitycache.NewMappedStore(func(ctx context.Context, key string, page int, args ...any) (*entitycache.Page[string], error) {
		if page > 0 {
			started <- struct{}{}
			<-release
		}
		return reviewTitles(ctx, key, page, args...)
	})
	require.NoError(t, reviews.List(ctx, "Dracula"))

	done := make(chan error)
	go func() { done <- reviews.ListMore(ctx, "Dracula") }()
	<-started
	assert.True(t, reviews.GetFetchingMore("Dracula").Get())

	reviews.ClearKey("Dracula")
	close(release)
	require.NoError(t, <-done)
	assert.Nil(t, reviews.GetObservableItems("Dracula").Get())
}

func TestMappedStoreListMoreNeverLeavesGaps(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	reviews := entitycache.NewMappedStore(func(ctx context.Context, key string, page int, args ...any) (*entitycache.Page[string], error) {
		if page == 3 {
			started <- struct{}{}
			<-release
		}
		return reviewTitles(ctx, key, page, args...)
	})
	observed := reviews.GetObservableItems("Dracula")
	require.NoError(t, reviews.List(ctx, "Dracula"))
	require.NoError(t, reviews.ListMore(ctx, "Dracula"))
	require.NoError(t, reviews.ListMore(ctx, "Dracula"))
	require.Equal(t, 2, observed.Get().Page)

	done := make(chan error)
	go func() { done <- reviews.ListMore(ctx, "Dracula") }()
	<-started

	// a fresh listing lands while page 3 is on its way
	require.NoError(t, reviews.List(ctx, "Dracula"))
	close(release)
	require.NoError(t, <-done)

	page := observed.Get()
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, []string{"Dracula: Item 1-0", "Dracula: Item 2-0"}, page.Content)

	require.NoError(t, reviews.ListMore(ctx, "Dracula"))
	assert.Equal(t, []string{
		"Dracula: Item 1-0", "Dracula: Item 2-0",
		"Dracula: Item 1-1", "Dracula: Item 2-1",
	}, observed.Get().Content)
}

func TestMappedStoreBind(t *testing.T) {
	ctx := context.Background()
	reviews := entitycache.NewStore(func(_ context.Context, key string, _ ...any) (entitycache.Entity, error) {
		return entitycache.Entity{"_id": key, "title": "Fetched"}, nil
	}, entitycache.WithPrimaryKey("_id"))
	mapped := entitycache.NewMappedStore(reviewPages).Bind(reviews)

	observed := mapped.GetObservableItems("Dracula")
	second := reviews.GetObservable("Dracula: 2-0")

	assert.Nil(t, second.Get())
	_, err := reviews.Fetch(ctx, "Dracula: 2-0")
	require.NoError(t, err)
	assert.Equal(t, "Fetched", second.Get()["title"])

	require.NoError(t, mapped.List(ctx, "Gargantua"))
	assert.Equal(t, "Fetched", second.Get()["title"])

	require.NoError(t, mapped.List(ctx, "Dracula"))
	assert.Equal(t, "Dracula: Item 2-0", second.Get()["title"])
	require.NoError(t, mapped.ListMore(ctx, "Dracula"))
	assert.Equal(t, "Dracula: Item 2-0", observed.Get().Content[1]["title"])

	_, err = reviews.Fetch(ctx, "Dracula: 2-0")
	require.NoError(t, err)
	assert.Equal(t, "Fetched", observed.Get().Content[1]["title"])
	assert.Len(t, observed.Get().Content, 4)

	reviews.Remove("Dracula: 2-0")
	assert.Nil(t, second.Get())
	assert.Len(t, observed.Get().Content, 3)
	_, err = reviews.Fetch(ctx, "Dracula: 2-0")
	require.NoError(t, err)
	assert.Len(t, observed.Get().Content, 4)
}

func TestMappedStorePresent(t *testing.T) {
	ctx := context.Background()
	reviews := entitycache.NewStore(func(_ context.Context, key string, _ ...any) (entitycache.Entity, error) {
		return entitycache.Entity{"_id": key, "title": "Fetched", "content": "Review content"}, nil
	}, entitycache.WithPrimaryKey("_id"))
	mapped := entitycache.NewMappedStore(reviewPages).Present(reviews)

	observed := mapped.GetObservableItems("Dracula")
	first := reviews.GetObservable("Dracula: 1-0")
	second := reviews.GetObservable("Dracula: 2-0")

	_, err := reviews.Fetch(ctx, "Dracula: 2-0")
	require.NoError(t, err)
	require.NoError(t, mapped.List(ctx, "Gargantua"))
	assert.Equal(t, "Fetched", second.Get()["title"])

	require.NoError(t, mapped.List(ctx, "Dracula"))
	assert.Nil(t, first.Get())
	assert.Equal(t, "Dracula: Item 2-0", second.Get()["title"])
	assert.Equal(t, "Review content", second.Get()["content"])

	require.NoError(t, mapped.ListMore(ctx, "Dracula"))
	assert.Equal(t, "Dracula: Item 1-0", observed.Get().Content[0]["title"])
	assert.Equal(t, "Dracula: Item 2-0", observed.Get().Content[1]["title"])

	_, err = reviews.Fetch(ctx, "Dracula: 2-0")
	require.NoError(t, err)
	assert.Equal(t, "Fetched", observed.Get().Content[1]["title"])
	assert.Len(t, observed.Get().Content, 4)

	reviews.Update("Dracula: 1-1", func(e entitycache.Entity) entitycache.Entity {
		e["title"] = "Patched"
		return e
	})
	assert.Equal(t, "Patched", observed.Get().Content[2]["title"])
	assert.Nil(t, reviews.GetObservable("Dracula: 1-1").Get())

	reviews.Remove("Dracula: 2-0")
	assert.Len(t, observed.Get().Content, 3)
}
