/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/suparena/entitycache/config"
	"github.com/suparena/entitycache/datastore"
	"github.com/suparena/entitycache/datastore/ddb"
	"github.com/suparena/entitycache/datastore/sqlite"
	"github.com/suparena/entitycache/storagemodels"
)

// backends opens the sources named by a configuration and shares
// connections between them.
type backends struct {
	sqlitePath string
	logger     *slog.Logger

	mu     sync.Mutex
	dbs    map[string]*sqlite.DB
	client *sdk.Client
}

func newBackends(sqlitePath string, logger *slog.Logger) *backends {
	return &backends{
		sqlitePath: sqlitePath,
		logger:     logger,
		dbs:        make(map[string]*sqlite.DB),
	}
}

func (b *backends) source(ctx context.Context, req config.SourceRequest) (datastore.Source, error) {
	pageSize := storagemodels.WithPageSize(req.Source.PageSize)

	switch req.Source.Backend {
	case config.BackendSQLite:
		db, err := b.sqlite(req.Source.Path)
		if err != nil {
			return nil, err
		}
		return db.Source(ctx, req.Source.Table,
			sqlite.WithPrimaryKey(req.PrimaryKey),
			sqlite.WithSourceOptions(pageSize),
		)

	case config.BackendDynamoDB:
		client, err := b.dynamodb(ctx)
		if err != nil {
			return nil, err
		}
		return ddb.NewSource(client, req.Source.Table, req.Owner,
			ddb.WithLogger(b.logger),
			ddb.WithSourceOptions(pageSize),
		), nil

	default:
		return nil, fmt.Errorf("unsupported backend %q", req.Source.Backend)
	}
}

func (b *backends) sqlite(path string) (*sqlite.DB, error) {
	if path == "" {
		path = b.sqlitePath
	}
	if path == "" {
		return nil, fmt.Errorf("no database file for sqlite source: set --sqlite or SQLITE_PATH")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if db, ok := b.dbs[path]; ok {
		return db, nil
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	b.dbs[path] = db
	return db, nil
}

func (b *backends) dynamodb(ctx context.Context) (*sdk.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		return b.client, nil
	}
	client, err := ddb.NewClient(ctx, ddb.ClientConfigFromEnv())
	if err != nil {
		return nil, err
	}
	b.client = client
	return client, nil
}

// Close closes every opened database.
func (b *backends) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var errs []error
	for path, db := range b.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", path, err))
		}
	}
	b.dbs = map[string]*sqlite.DB{}
	return stderrors.Join(errs...)
}
