package mcp

import (
	"context"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/monarrange/internal/logger"
	"github.com/1broseidon/monarrange/internal/platform"
	"github.com/1broseidon/monarrange/internal/session"
)

const (
	ServerName    = "monarrange"
	ServerVersion = "0.1.0"
)

// Server exposes an arranging session as MCP tools. Tool calls and hotplug
// events are serialized on mu.
type Server struct {
	mcpServer *mcpsdk.Server

	mu   sync.Mutex
	sess *session.Session
}

// NewServer creates a server around a loaded session.
func NewServer(sess *session.Session) *Server {
	s := &Server{sess: sess}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Watch feeds backend hotplug events into the session until ctx is done.
func (s *Server) Watch(ctx context.Context, backend platform.Backend) error {
	events, err := backend.Events(ctx)
	if err != nil {
		return err
	}
	for ev := range events {
		s.mu.Lock()
		err := s.sess.HandleEvent(ev)
		s.mu.Unlock()
		if err != nil {
			logger.Warnf("hotplug: %v", err)
		}
	}
	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_outputs",
		Description: "List connected display outputs with their current mode, real and canvas geometry, channel and available modes.",
	}, s.handleListOutputs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "place_output",
		Description: "Move an output flush against another one (left-of, right-of, above, below). Only the pending layout changes; call apply_layout to push it to the hardware.",
	}, s.handlePlaceOutput)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_mode",
		Description: "Select the resolution and refresh rate of an output for the pending layout.",
	}, s.handleSetMode)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_enabled",
		Description: "Enable or disable an output in the pending layout.",
	}, s.handleSetEnabled)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "apply_layout",
		Description: "Apply the pending layout to the display hardware and re-read the resulting state. Per-output failures are reported without rolling back the rest.",
	}, s.handleApplyLayout)
}
