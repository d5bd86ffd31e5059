// Package stdio implements a single-connection MCP transport over
// stdin/stdout. It is what the fake hevy server runs on when the smoke
// harness launches it as a subprocess, exactly as it would launch the real
// hevy-mcp executable.
//
// Characteristics
//
//	Connection model : 1 process <-> 1 client
//	Auth             : none (credentials travel in the process environment)
//	Sessions         : one implicit session per process
//	Transport        : newline-delimited JSON-RPC 2.0
//
// Example:
//
//	srv := mcpservice.NewServer(
//	    mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "my-stdio-server", Version: "0.1.0"}),
//	    mcpservice.WithTools(tools),
//	)
//	h := stdio.NewHandler(srv)
//	if err := h.Serve(ctx); err != nil { log.Fatal(err) }
package stdio
