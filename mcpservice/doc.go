// Package mcpservice holds the server-side MCP semantics used by the fake
// hevy server: a Server that answers initialize, and a ToolsContainer that
// lists and dispatches typed tools. It is transport-agnostic; the stdio
// package frames its results as JSON-RPC.
//
// Quick start:
//
//	type WorkoutsArgs struct {
//	    Page int `json:"page,omitempty" jsonschema:"minimum=1,default=1"`
//	}
//	tools := mcpservice.NewToolsContainer(
//	    mcpservice.NewTool("get-workouts",
//	        func(ctx context.Context, a WorkoutsArgs) (*mcp.CallToolResult, error) {
//	            return mcpservice.TextResult("[]"), nil
//	        },
//	        mcpservice.WithToolDescription("List workouts"),
//	    ),
//	)
//	srv := mcpservice.NewServer(
//	    mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "hevy-mcp", Version: "fake"}),
//	    mcpservice.WithTools(tools),
//	)
package mcpservice
