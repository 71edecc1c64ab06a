/*
Package entitycache provides a client-side normalized entity cache with
reactive change propagation, pagination and cross-entity reference resolution.

A Store holds the canonical version of every entity of one type, keyed by a
configurable primary-key field. Paginated and mapped stores cache listings
page by page and overlay them onto a Store, so that a list always shows the
freshest known version of each entity and drops entities that were removed.
Bindings between stores substitute embedded sub-objects such as book.author
with the live canonical entity on every read.

Key Features:
  - Canonical keyed stores with fetch, save, merge, partial updates and removal
  - Tombstones distinguishing deleted entities from entities never fetched
  - Field-path bindings in bind mode (writes through) or present mode (read only)
  - Paginated and per-key paginated listings with re-entrancy guards
  - Stale responses of superseded list calls are discarded
  - Observable views built on the reactive package
  - Loader sources for DynamoDB and SQLite, configured from YAML

Basic Usage:

	authors := entitycache.NewStore(datastore.Fetcher(authorSource), entitycache.WithName("authors"))
	books := entitycache.NewStore(datastore.Fetcher(bookSource), entitycache.WithName("books"))
	if err := books.BindProperty("infos.author", authors); err != nil {
		return err
	}

	list := entitycache.NewPaginatedStore(datastore.Lister(bookSource, params)).Present(books)
	if err := list.List(ctx); err != nil {
		return err
	}
	page := list.Items().Get()

Every notification runs synchronously on the goroutine that made the change,
after the change is visible to readers.
*/
package entitycache
