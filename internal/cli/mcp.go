package cli

import (
	"github.com/spf13/cobra"

	"github.com/rekindle/rekindle/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve rekindle as an MCP tool server on stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout so an AI assistant
can list recommendations and reminders, import chats and fetch suggestions.

Logs go to stderr; stdout carries the protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return mcp.NewServer(a.orch, a.sched, a.userID, version, a.log).ServeStdio()
		},
	}
}
