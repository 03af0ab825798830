// Package commands implements the mcpgo CLI surface: "serve" runs an MCP
// server over stdio or SSE, "connect" spawns one as a child process and
// drives a minimal smoke test against it.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// RootCmd returns the root mcpgo command with its subcommands attached.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mcpgo",
		Short:         "A Model Context Protocol server and client toolkit",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to configuration file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newConnectCmd())

	return root
}

// Execute runs the root command.
func Execute() {
	if err := RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
