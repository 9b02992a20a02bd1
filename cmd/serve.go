package cmd

import (
	"github.com/shaktech786/arr-suite-mcp-server/internal/mcpserver"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"mcp"},
	Short:   "Run the MCP server on stdio",
	Long: `Run the Model Context Protocol server on stdio so an LLM host can drive
the same routing, dispatch, backup, and release tools the CLI exposes.

Stdout carries the protocol; the startup banner and every diagnostic go to
stderr.

Example host entry:
  {"command": "arr-suite", "args": ["serve"]}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		return mcpserver.New(cmd.Context(), cfg, version).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
