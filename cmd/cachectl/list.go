/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/entitycache"
	"github.com/suparena/entitycache/errors"
)

func newListCommand(opts *rootOptions) *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "list <config> <list> [key]",
		Short: "Load pages of a list and print the accumulated listing",
		Long: `Load the first page of a list, then up to --pages minus one more pages.

Keyed lists need the key of the listing to load.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pages < 1 {
				return errors.NewValidationError("pages", "must be at least 1")
			}
			storage, b, err := opts.build(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer b.Close()

			var page *entitycache.Page[entitycache.Entity]
			if len(args) == 3 {
				page, err = listKeyed(cmd, storage, args[1], args[2], pages)
			} else {
				page, err = listPaginated(cmd, storage, args[1], pages)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(page)
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	return cmd
}

func listPaginated(cmd *cobra.Command, storage *entitycache.Storage, name string, pages int) (*entitycache.Page[entitycache.Entity], error) {
	list, err := storage.List(name)
	if err != nil {
		if _, lookupErr := storage.MappedList(name); lookupErr == nil {
			return nil, fmt.Errorf("list %q is keyed: pass the key to load", name)
		}
		return nil, err
	}

	ctx := cmd.Context()
	if err := list.List(ctx); err != nil {
		return nil, err
	}
	for i := 1; i < pages && !list.LastPage(); i++ {
		if err := list.ListMore(ctx); err != nil {
			return nil, err
		}
	}
	return list.Items().Get(), nil
}

func listKeyed(cmd *cobra.Command, storage *entitycache.Storage, name, key string, pages int) (*entitycache.Page[entitycache.Entity], error) {
	list, err := storage.MappedList(name)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if err := list.List(ctx, key); err != nil {
		return nil, err
	}
	for i := 1; i < pages && !list.LastPage(key); i++ {
		if err := list.ListMore(ctx, key); err != nil {
			return nil, err
		}
	}
	return list.GetObservableItems(key).Get(), nil
}
