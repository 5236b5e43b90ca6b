package main

import (
	"github.com/spf13/cobra"

	"github.com/1broseidon/monarrange/internal/logger"
	"github.com/1broseidon/monarrange/internal/mcp"
)

func newMCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol server",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the MCP server on stdio. Designed to be invoked by MCP clients,
which can then list outputs, place them, pick modes and apply layouts.`,
		Example: `  claude mcp add monarrange -- monarrange mcp serve`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, backend, err := a.openSession()
			if err != nil {
				return err
			}
			defer backend.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			server := mcp.NewServer(sess)
			go func() {
				if err := server.Watch(ctx, backend); err != nil {
					logger.Warnf("hotplug notifications unavailable: %v", err)
				}
			}()
			return server.Run(ctx)
		},
	}
	return cmd
}
