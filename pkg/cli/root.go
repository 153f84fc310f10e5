// Package cli holds the gradpath-engine command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// version is set by Execute from the build-time value in main.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "gradpath-engine",
	Short: "Study-abroad consulting workspace server",
	Long: `gradpath-engine serves the consultant workspace: client records,
the shared faculty database, AI-assisted import, faculty search and
document drafting, over an HTTP API, an MCP endpoint and the web UI.

Running without a subcommand starts the server.

Configuration is read from config.yaml when present, otherwise from
environment variables (a .env file is loaded first).`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the command tree with the given build version.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}
