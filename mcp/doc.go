// Package mcp contains the subset of Model Context Protocol wire types the
// in-repo fake hevy server speaks: the initialize handshake, tool listing and
// tool invocation. The types mirror the JSON shapes of the protocol and carry
// no transport logic; the stdio package frames them as JSON-RPC.
//
// The smoke harness talks to servers through the go-sdk client and never
// imports this package.
//
// Example (tool result construction):
//
//	res := &mcp.CallToolResult{
//	    Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: "[]"}},
//	}
package mcp
