/*
Package registry manages index maps for the backing sources of entitycache stores.

An index map associates a store name with key templates. Loader sources
expand the templates with the requested key to address items in backends
using a single-table design:

	registry.RegisterIndexMap("authors", map[string]string{
	    "PK": "AUTHOR#{id}",
	    "SK": "AUTHOR#{id}",
	})

	keys := registry.ExpandIndexMap(indexMap, "bram-stoker")
	// keys["PK"] == "AUTHOR#bram-stoker"

The registry is thread-safe and is usually populated by the config package
while building the storage.
*/
package registry
