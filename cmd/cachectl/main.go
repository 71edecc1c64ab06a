/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command cachectl inspects entity cache configurations and loads entities
// through them.
package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("cachectl failed", "error", err)
		os.Exit(1)
	}
}
