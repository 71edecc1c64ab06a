/*
Package datastore defines the backing sources of entitycache stores.

The main interface is Source, which serves single entities and pages of
listings:

	type Source interface {
	    GetOne(ctx context.Context, key string) (storagemodels.Entity, error)
	    QueryPage(ctx context.Context, params storagemodels.ListParams, page int) (*storagemodels.Page[storagemodels.Entity], error)
	}

Fetcher, Lister and KeyedLister turn a Source into the loader functions of
entitycache.Store, entitycache.PaginatedStore and entitycache.MappedStore.

Implementations:
  - ddb: DynamoDB source for single-table designs
  - sqlite: SQLite source storing JSON documents
  - mock: In-memory source for testing
*/
package datastore
