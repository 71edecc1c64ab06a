/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreOption configures a Store, a PaginatedStore or a MappedStore.
type StoreOption func(*storeOptions)

type storeOptions struct {
	name       string
	primaryKey string
	keyFormat  string
	logger     *slog.Logger
	registerer prometheus.Registerer
	tokens     TokenGenerator
}

// WithName names the store in logs, errors and metric labels.
func WithName(name string) StoreOption {
	return func(o *storeOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// WithPrimaryKey sets the field holding the primary key. Default "id".
func WithPrimaryKey(field string) StoreOption {
	return func(o *storeOptions) {
		if field != "" {
			o.primaryKey = field
		}
	}
}

// WithKeyFormat validates every written key against a strfmt format such as
// "uuid" or "email". Unknown formats are rejected when the store is built.
func WithKeyFormat(format string) StoreOption {
	return func(o *storeOptions) {
		o.keyFormat = format
	}
}

// WithLogger sets the logger. Default slog.Default().
func WithLogger(logger *slog.Logger) StoreOption {
	return func(o *storeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics exports store counters to the given registerer.
// If registerer is nil, this option is ignored.
func WithMetrics(registerer prometheus.Registerer) StoreOption {
	return func(o *storeOptions) {
		o.registerer = registerer
	}
}

// WithTokenGenerator replaces the UUID update-token generator.
func WithTokenGenerator(tokens TokenGenerator) StoreOption {
	return func(o *storeOptions) {
		if tokens != nil {
			o.tokens = tokens
		}
	}
}

func applyStoreOptions(defaultName string, opts ...StoreOption) *storeOptions {
	o := &storeOptions{
		name:       defaultName,
		primaryKey: DefaultPrimaryKey,
		logger:     slog.Default(),
		tokens:     UUIDTokens{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
