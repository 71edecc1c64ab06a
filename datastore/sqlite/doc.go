// Package sqlite provides a datastore.Source backed by SQLite.
//
// Each Source owns one table holding entities as JSON documents next to
// their key and partition:
//
//	CREATE TABLE books (id TEXT PRIMARY KEY, partition TEXT, doc TEXT)
//
// Pages are served with LIMIT/OFFSET ordered by id. Several Sources can
// share one database opened with Open.
package sqlite
