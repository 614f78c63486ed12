package main

import (
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/vadimtrunov/cinescope/internal/mcp"
)

// newMCPServeCmd returns the hidden "mcp-serve" subcommand.
// It serves the catalog tools over stdin/stdout for MCP clients; logs go to stderr.
func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "mcp-serve",
		Short:  "Start MCP server over stdio",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			logger, closeLog, err := setupLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			srv := mcpserver.NewServer(mcpserver.Deps{
				Catalog: newCatalog(cfg, logger),
				Version: version,
			}, logger)
			return srv.ServeStdio(cmd.Context())
		},
	}
}
