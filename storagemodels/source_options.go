/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import "time"

// SourceOptions configures a backend Source.
type SourceOptions struct {
	PageSize     int32         // Items per page when ListParams leaves it unset (default: 20)
	MaxRetries   int           // Retry attempts for throttled requests (default: 3)
	RetryBackoff time.Duration // Backoff between retries (default: 200ms)
}

// SourceOption is a functional option for configuring a Source
type SourceOption func(*SourceOptions)

// DefaultSourceOptions returns default source options
func DefaultSourceOptions() SourceOptions {
	return SourceOptions{
		PageSize:     20,
		MaxRetries:   3,
		RetryBackoff: 200 * time.Millisecond,
	}
}

// ApplySourceOptions returns the defaults with opts applied.
func ApplySourceOptions(opts ...SourceOption) SourceOptions {
	options := DefaultSourceOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return options
}

// WithPageSize sets the default page size
func WithPageSize(size int32) SourceOption {
	return func(opts *SourceOptions) {
		if size > 0 {
			opts.PageSize = size
		}
	}
}

// WithMaxRetries sets the maximum retry attempts
func WithMaxRetries(retries int) SourceOption {
	return func(opts *SourceOptions) {
		opts.MaxRetries = retries
	}
}

// WithRetryBackoff sets the retry backoff duration
func WithRetryBackoff(backoff time.Duration) SourceOption {
	return func(opts *SourceOptions) {
		opts.RetryBackoff = backoff
	}
}
