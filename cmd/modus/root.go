// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the modus CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modus",
		Short: "modus - a plugin runtime kernel",
		Long: `modus hosts native plugin modules around a shared allocator,
a synchronous event bus and a frame loop.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/modus/modus.yaml)")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewInspectCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println("modus " + versionString())
			return nil
		},
	}
}
