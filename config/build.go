/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"context"
	"fmt"

	"github.com/suparena/entitycache"
	"github.com/suparena/entitycache/datastore"
	"github.com/suparena/entitycache/registry"
	"github.com/suparena/entitycache/storagemodels"
)

// SourceRequest describes a Source needed by Build.
type SourceRequest struct {
	// Owner is the store whose entities the source serves. For a list
	// without target it is the list name.
	Owner      string
	PrimaryKey string
	Source     SourceConfig
}

// SourceFactory opens the backend Source of a store or a list.
type SourceFactory func(ctx context.Context, req SourceRequest) (datastore.Source, error)

// Build validates cfg and creates its stores, bindings and lists. Index maps
// of DynamoDB sources are registered under their store name. opts apply to
// every store and list before the configured name, primary key and key format.
func Build(ctx context.Context, cfg *Config, factory SourceFactory, opts ...entitycache.StoreOption) (*entitycache.Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	storage := entitycache.NewStorage()
	stores := make(map[string]*entitycache.Store, len(cfg.Stores))

	for _, sc := range cfg.Stores {
		var fetch entitycache.Fetcher
		if sc.Source != nil {
			if len(sc.Source.IndexMap) > 0 {
				registry.RegisterIndexMap(sc.Name, sc.Source.IndexMap)
			}
			src, err := factory(ctx, SourceRequest{Owner: sc.Name, PrimaryKey: sc.PrimaryKey, Source: *sc.Source})
			if err != nil {
				return nil, fmt.Errorf("store %q: %w", sc.Name, err)
			}
			fetch = datastore.Fetcher(src)
		}

		storeOpts := append(append([]entitycache.StoreOption{}, opts...),
			entitycache.WithName(sc.Name),
			entitycache.WithPrimaryKey(sc.PrimaryKey),
			entitycache.WithKeyFormat(sc.KeyFormat),
		)
		s := entitycache.NewStore(fetch, storeOpts...)
		if err := storage.RegisterStore(sc.Name, s); err != nil {
			return nil, err
		}
		stores[sc.Name] = s
	}

	for _, bc := range cfg.Bindings {
		var err error
		if bc.Mode == entitycache.PresentMode.String() {
			err = stores[bc.Store].PresentProperty(bc.Path, stores[bc.Target])
		} else {
			err = stores[bc.Store].BindProperty(bc.Path, stores[bc.Target])
		}
		if err != nil {
			return nil, fmt.Errorf("binding %s.%s: %w", bc.Store, bc.Path, err)
		}
	}

	for _, lc := range cfg.Lists {
		if err := buildList(ctx, storage, stores, lc, factory, opts); err != nil {
			return nil, fmt.Errorf("list %q: %w", lc.Name, err)
		}
	}
	return storage, nil
}

func buildList(ctx context.Context, storage *entitycache.Storage, stores map[string]*entitycache.Store, lc ListConfig, factory SourceFactory, opts []entitycache.StoreOption) error {
	req := SourceRequest{Owner: lc.Name, PrimaryKey: storagemodels.DefaultPrimaryKey, Source: *lc.Source}
	target := stores[lc.Target]
	if target != nil {
		req.Owner, req.PrimaryKey = target.Name(), target.PrimaryKey()
	}

	src, err := factory(ctx, req)
	if err != nil {
		return err
	}

	listOpts := append(append([]entitycache.StoreOption{}, opts...),
		entitycache.WithName(lc.Name),
		entitycache.WithPrimaryKey(req.PrimaryKey),
	)
	present := lc.Mode == entitycache.PresentMode.String()

	if lc.Keyed {
		l := entitycache.NewMappedStore(datastore.KeyedLister(src, lc.Source.ListParams()), listOpts...)
		switch {
		case target == nil:
		case present:
			l.Present(target)
		default:
			l.Bind(target)
		}
		return storage.RegisterMappedList(lc.Name, l)
	}

	l := entitycache.NewPaginatedStore(datastore.Lister(src, lc.Source.ListParams()), listOpts...)
	switch {
	case target == nil:
	case present:
		l.Present(target)
	default:
		l.Bind(target)
	}
	return storage.RegisterList(lc.Name, l)
}
