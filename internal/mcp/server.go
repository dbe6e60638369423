// Package mcp exposes ticket context, transcripts and queue standing to AI
// agents over the Model Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/supportdesk/internal/contextmerge"
	"github.com/ziadkadry99/supportdesk/internal/queue"
	"github.com/ziadkadry99/supportdesk/internal/related"
	"github.com/ziadkadry99/supportdesk/internal/timeline"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes read-only ticket tools.
type Server struct {
	scheduler *queue.Scheduler
	engine    *contextmerge.Engine
	stream    *timeline.Stream
	index     *related.Index
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server. index may be nil, in which case the
// related-ticket search tool is not offered.
func NewServer(scheduler *queue.Scheduler, engine *contextmerge.Engine, stream *timeline.Stream, index *related.Index) *Server {
	s := &Server{
		scheduler: scheduler,
		engine:    engine,
		stream:    stream,
		index:     index,
	}

	s.mcp = server.NewMCPServer(
		"supportdesk",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(getTicketContextTool, s.handleGetTicketContext)
	s.mcp.AddTool(getTranscriptTool, s.handleGetTranscript)
	s.mcp.AddTool(getQueuePositionTool, s.handleGetQueuePosition)
	s.mcp.AddTool(listVendorQueueTool, s.handleListVendorQueue)
	if s.index != nil {
		s.mcp.AddTool(searchRelatedTicketsTool, s.handleSearchRelatedTickets)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
