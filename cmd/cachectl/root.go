/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/suparena/entitycache"
	"github.com/suparena/entitycache/config"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	EnvFile    string
	SQLitePath string
	Verbose    bool

	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "cachectl",
		Short:         "Inspect and exercise entity cache configurations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(opts.EnvFile); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load %s: %w", opts.EnvFile, err)
			}
			if opts.SQLitePath == "" {
				opts.SQLitePath = os.Getenv("SQLITE_PATH")
			}

			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env", ".env", "dotenv file with backend credentials")
	cmd.PersistentFlags().StringVar(&opts.SQLitePath, "sqlite", "", "database file for sqlite sources without a path (default $SQLITE_PATH)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newFetchCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// build loads the configuration file and wires its storage. The returned
// backends must be closed once the storage is no longer used.
func (o *rootOptions) build(ctx context.Context, path string) (*entitycache.Storage, *backends, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	b := newBackends(o.SQLitePath, o.logger)
	storage, err := config.Build(ctx, cfg, b.source, entitycache.WithLogger(o.logger))
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return storage, b, nil
}
