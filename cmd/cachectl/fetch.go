/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newFetchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <config> <store> <key>",
		Short: "Fetch one entity and print it denormalized",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, b, err := opts.build(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer b.Close()

			store, err := storage.Store(args[1])
			if err != nil {
				return err
			}
			e, err := store.Fetch(cmd.Context(), args[2])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(e)
		},
	}
}
