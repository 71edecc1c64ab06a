/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"regexp"

	_ "github.com/mattn/go-sqlite3"

	"github.com/suparena/entitycache/datastore"
	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/storagemodels"
)

var (
	_ datastore.Source = (*Source)(nil)
	_ datastore.Writer = (*Source)(nil)
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DB is an open SQLite database shared by Sources.
type DB struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// ":memory:" gives a private in-memory database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite has a single writer, and an in-memory database lives on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Option configures a Source.
type Option func(*Source)

// WithPrimaryKey sets the entity field stored in the id column
func WithPrimaryKey(field string) Option {
	return func(s *Source) {
		if field != "" {
			s.primaryKey = field
		}
	}
}

// WithPartitionField sets the entity field stored in the partition column
func WithPartitionField(field string) Option {
	return func(s *Source) {
		if field != "" {
			s.partitionField = field
		}
	}
}

// WithSourceOptions applies the default page size
func WithSourceOptions(opts ...storagemodels.SourceOption) Option {
	return func(s *Source) {
		for _, opt := range opts {
			if opt != nil {
				opt(&s.options)
			}
		}
	}
}

// Source serves entities from one table.
type Source struct {
	db             *sql.DB
	table          string
	primaryKey     string
	partitionField string
	options        storagemodels.SourceOptions
}

// Source creates the table if needed and returns a Source over it.
func (d *DB) Source(ctx context.Context, table string, opts ...Option) (*Source, error) {
	if !tableName.MatchString(table) {
		return nil, errors.NewValidationError("table", fmt.Sprintf("invalid table name %q", table))
	}

	s := &Source{
		db:             d.db,
		table:          table,
		primaryKey:     storagemodels.DefaultPrimaryKey,
		partitionField: "partition",
		options:        storagemodels.DefaultSourceOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}

	schema := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id        TEXT PRIMARY KEY,
			"partition" TEXT NOT NULL DEFAULT '',
			doc       TEXT NOT NULL
		)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_partition ON %s ("partition", id)`, table, table),
	}
	for _, stmt := range schema {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return s, nil
}

// GetOne returns the entity stored under key, or nil, nil when absent.
func (s *Source) GetOne(ctx context.Context, key string) (storagemodels.Entity, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT doc FROM %s WHERE id = ?", s.table), key).Scan(&doc)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %q: %w", key, err)
	}
	return decode(doc)
}

// QueryPage returns one page of the partition ordered by id. An empty
// partition lists the whole table.
func (s *Source) QueryPage(ctx context.Context, params storagemodels.ListParams, page int) (*storagemodels.Page[storagemodels.Entity], error) {
	if page < 0 {
		return nil, errors.NewValidationError("page", "must not be negative")
	}

	where, args := "", []any{}
	if params.Partition != "" {
		where, args = `WHERE "partition" = ?`, append(args, params.Partition)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s %s", s.table, where), args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count %s: %w", s.table, err)
	}

	size := params.PageSize
	if size <= 0 {
		size = s.options.PageSize
	}
	order := "ASC"
	if params.Ascending != nil && !*params.Ascending {
		order = "DESC"
	}

	query := fmt.Sprintf("SELECT doc FROM %s %s ORDER BY id %s LIMIT ? OFFSET ?", s.table, where, order)
	rows, err := s.db.QueryContext(ctx, query, append(args, size, page*int(size))...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	content := []storagemodels.Entity{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		e, err := decode(doc)
		if err != nil {
			return nil, err
		}
		content = append(content, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.table, err)
	}

	return &storagemodels.Page[storagemodels.Entity]{
		Content:    content,
		Page:       page,
		TotalPages: datastore.TotalPages(total, size),
		TotalSize:  total,
	}, nil
}

// Put inserts or replaces the entity.
func (s *Source) Put(ctx context.Context, e storagemodels.Entity) error {
	key, ok := e.Key(s.primaryKey)
	if !ok {
		return errors.NewValidationError(s.primaryKey, "unable to extract key from entity")
	}
	partition, _ := storagemodels.KeyOf(e[s.partitionField])

	doc, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entity %q: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, "partition", doc) VALUES (?, ?, ?) ON CONFLICT(id) DO UPDATE SET "partition" = excluded."partition", doc = excluded.doc`, s.table),
		key, partition, string(doc))
	if err != nil {
		return fmt.Errorf("failed to put %q: %w", key, err)
	}
	return nil
}

func decode(doc string) (storagemodels.Entity, error) {
	var e storagemodels.Entity
	if err := json.Unmarshal([]byte(doc), &e); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return e, nil
}
