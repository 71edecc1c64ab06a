/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitycache"
	"github.com/suparena/entitycache/datastore"
	"github.com/suparena/entitycache/datastore/mock"
	"github.com/suparena/entitycache/storagemodels"
)

func seeded() *mock.Source {
	return mock.New().SetData(
		storagemodels.Entity{"id": "b1", "partition": "BOOK", "title": "Dracula"},
		storagemodels.Entity{"id": "b2", "partition": "BOOK", "title": "Carmilla"},
		storagemodels.Entity{"id": "b3", "partition": "BOOK", "title": "Frankenstein"},
		storagemodels.Entity{"id": "r1", "partition": "REVIEWS#b1", "title": "Great"},
	)
}

func TestFetcherFeedsStore(t *testing.T) {
	books := entitycache.NewStore(datastore.Fetcher(seeded()))

	got, err := books.Fetch(context.Background(), "b2")
	require.NoError(t, err)
	assert.Equal(t, "Carmilla", got["title"])

	_, err = books.Fetch(context.Background(), "missing")
	assert.Error(t, err)
}

func TestListerPagesThroughPartition(t *testing.T) {
	ctx := context.Background()
	list := entitycache.NewPaginatedStore(datastore.Lister(seeded(), storagemodels.ListParams{Partition: "BOOK", PageSize: 2}))

	require.NoError(t, list.List(ctx))
	page := list.Items().Get()
	require.Len(t, page.Content, 2)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 3, page.TotalSize)

	require.NoError(t, list.ListMore(ctx))
	page = list.Items().Get()
	require.Len(t, page.Content, 3)
	assert.Equal(t, "b3", page.Content[2]["id"])
	assert.True(t, list.LastPage())

	require.NoError(t, list.List(ctx, "REVIEWS#b1"))
	assert.Len(t, list.Items().Get().Content, 1)
}

func TestKeyedListerExpandsPartition(t *testing.T) {
	ctx := context.Background()
	reviews := entitycache.NewMappedStore(datastore.KeyedLister(seeded(), storagemodels.ListParams{Partition: "REVIEWS#{id}"}))

	require.NoError(t, reviews.List(ctx, "b1"))
	assert.Equal(t, "Great", reviews.GetObservableItems("b1").Get().Content[0]["title"])

	require.NoError(t, reviews.List(ctx, "b2"))
	assert.Empty(t, reviews.GetObservableItems("b2").Get().Content)
}

func TestPartitionFor(t *testing.T) {
	assert.Equal(t, "REVIEWS#b1", datastore.PartitionFor("REVIEWS#{id}", "b1"))
	assert.Equal(t, "b1", datastore.PartitionFor("", "b1"))
	assert.Equal(t, "b1", datastore.PartitionFor("STATIC", "b1"))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, datastore.TotalPages(0, 20))
	assert.Equal(t, 1, datastore.TotalPages(20, 20))
	assert.Equal(t, 2, datastore.TotalPages(21, 20))
	assert.Equal(t, 0, datastore.TotalPages(5, 0))
}
