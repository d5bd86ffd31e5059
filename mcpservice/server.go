package mcpservice

import (
	"context"

	"github.com/ggoodman/hevy-mcp-smoke/mcp"
)

// ServerOption configures a Server.
type ServerOption func(*Server)

// Server answers the MCP lifecycle and tool requests for one transport.
type Server struct {
	info         mcp.ImplementationInfo
	instructions string
	tools        *ToolsContainer
}

// NewServer builds a Server using functional options. Without WithTools the
// server advertises an empty tools capability.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		info: mcp.ImplementationInfo{Name: "mcpservice", Version: "0.0.0"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tools == nil {
		s.tools = NewToolsContainer()
	}
	return s
}

// WithServerInfo sets the implementation info returned from initialize.
func WithServerInfo(info mcp.ImplementationInfo) ServerOption {
	return func(s *Server) { s.info = info }
}

// WithInstructions sets human-readable instructions returned during initialize.
func WithInstructions(instr string) ServerOption {
	return func(s *Server) { s.instructions = instr }
}

// WithTools wires the tool set served by this server.
func WithTools(tools *ToolsContainer) ServerOption {
	return func(s *Server) { s.tools = tools }
}

// Initialize negotiates the protocol version and reports capabilities.
func (s *Server) Initialize(ctx context.Context, req *mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	return &mcp.InitializeResult{
		ProtocolVersion: mcp.NegotiateProtocolVersion(req.ProtocolVersion),
		Capabilities: mcp.ServerCapabilities{
			Tools: &mcp.ToolsCapability{ListChanged: false},
		},
		ServerInfo:   s.info,
		Instructions: s.instructions,
	}, nil
}

// ListTools returns the page of tools starting at cursor.
func (s *Server) ListTools(ctx context.Context, cursor string) (*mcp.ListToolsResult, error) {
	return s.tools.ListTools(ctx, cursor)
}

// CallTool dispatches req to the named tool.
func (s *Server) CallTool(ctx context.Context, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
	return s.tools.CallTool(ctx, req)
}
