/*
Package storagemodels defines the data structures shared by the cache, its
loader sources and its configuration layer.

Key Types:

Entity:
A loosely typed structured record keyed by a configurable primary-key field:

	book := Entity{
	    "id":    "dracula",
	    "title": "Dracula",
	    "infos": map[string]any{"author": map[string]any{"id": "bram-stoker"}},
	}

Page:
One chunk of a paginated listing plus its metadata:

	type Page[T any] struct {
	    Content    []T
	    Page       int // 0-based
	    TotalPages int
	    TotalSize  int
	}

ListParams:
A backend-neutral description of a listing handed to a Source:

	params := ListParams{
	    Partition: "BOOK",
	    PageSize:  20,
	}

SourceOptions:
Configuration for backend adapters:

	opts := []SourceOption{
	    WithPageSize(25),
	    WithMaxRetries(3),
	    WithRetryBackoff(time.Second),
	}

These types provide a consistent interface across the cache and every Source
implementation.
*/
package storagemodels
