// Package cli defines the golens command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "golens",
	Short: "Semantic Go code tools for AI agents over MCP",
	Long: `golens gives AI coding agents semantic information about Go projects.

It supervises one gopls instance per registered project and exposes
hover docs, type definitions, references, symbol resolution, dependency
documentation and build/test diagnostics as MCP tools.

Typical setup:
  golens project add /path/to/project
  golens serve`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
