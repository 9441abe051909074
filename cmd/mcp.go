package cmd

import (
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/garagekb/garagekb/internal/kb"
	kbmcp "github.com/garagekb/garagekb/internal/mcp"
	"github.com/garagekb/garagekb/internal/search"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the knowledge base over MCP on stdio",
	Long: `Expose search and retrieval tools to MCP clients over stdio.

Stdout carries the protocol, so this command never prints to it; logs
go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := activeConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(c.Debug)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		store, err := kb.NewStore(c, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		srv := kbmcp.NewServer(store, search.NewEngine(c.PreviewRadius), version)
		return mcpserver.ServeStdio(srv)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
