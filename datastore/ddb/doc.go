/*
Package ddb provides a DynamoDB implementation of the datastore.Source interface.

The Source follows a single-table design. Each store registers an index
map in the registry package that describes how entity fields become key
attributes:

	registry.RegisterIndexMap("books", map[string]string{
	    "PK":  "BOOK#{id}",       // Becomes "BOOK#42"
	    "SK":  "BOOK#{id}",
	    "PK1": "SHELF#{shelf}",   // GSI1 partition
	    "SK1": "BOOK#{id}",
	})

GetOne expands every template with the requested key and reads the item
by PK and SK. QueryPage lists one partition of the table, or of a GSI when
ListParams.IndexName is set, and walks pages with ExclusiveStartKey:

	src := ddb.NewSource(client, "library", "books",
	    ddb.WithSourceOptions(storagemodels.WithPageSize(25)),
	)
	page, err := src.QueryPage(ctx, storagemodels.ListParams{
	    IndexName: "GSI1",
	    Partition: "SHELF#fiction",
	}, 0)

Throttled requests are retried per storagemodels.SourceOptions. Key
attributes are removed from the returned entities.
*/
package ddb
