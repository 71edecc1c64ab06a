/*
Package config builds a wired entitycache.Storage from a YAML description
of stores, reference bindings and lists.

	stores:
	  - name: authors
	    source: {backend: ddb, table: library, indexMap: {PK: "AUTHOR#{id}", SK: "AUTHOR#{id}"}}
	  - name: books
	    source: {backend: ddb, table: library, indexMap: {PK: "BOOK#{id}", SK: "BOOK#{id}", PK1: "SHELF#{shelf}"}}
	bindings:
	  - {store: books, path: infos.author, target: authors, mode: bind}
	lists:
	  - name: books-by-shelf
	    target: books
	    mode: present
	    keyed: true
	    source: {backend: ddb, table: library, indexName: GSI1, partition: "SHELF#{shelf}"}

Backends are opened through a SourceFactory supplied by the caller, so the
package itself holds no connections. Report renders the binding graph and
flags cycles among bind-mode bindings.
*/
package config
