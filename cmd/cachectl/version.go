/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// version is overridden with -ldflags "-X main.version=..."
var version = "0.1.0"

type buildInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuiltAt   string `json:"builtAt" yaml:"builtAt"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
}

// readBuildInfo takes commit and time from the vcs stamp the go tool embeds.
func readBuildInfo() buildInfo {
	info := buildInfo{Version: version, Commit: "unknown", BuiltAt: "unknown", GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.time":
			info.BuiltAt = s.Value
		}
	}
	return info
}

func newVersionCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := readBuildInfo()
			out := cmd.OutOrStdout()

			switch format {
			case "text":
				fmt.Fprintf(out, "cachectl version %s\n", info.Version)
				fmt.Fprintf(out, "commit %s, built %s, %s\n", info.Commit, info.BuiltAt, info.GoVersion)
				return nil
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case "yaml":
				enc := yaml.NewEncoder(out)
				defer enc.Close()
				return enc.Encode(info)
			default:
				return fmt.Errorf("invalid format %q: must be one of text, json, yaml", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format (text|json|yaml)")
	return cmd
}
