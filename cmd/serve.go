package cmd

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/supportdesk/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing ticket context, transcripts and queue standing to AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		mcpserver.Version = Version

		// Stdout carries the protocol; the logger writes to stderr.
		a.log.Info("supportdesk MCP server started on stdio", "database", a.db.Path(), "related_index", a.index != nil)

		srv := mcpserver.NewServer(a.scheduler, a.engine, a.stream, a.index)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
