// Package session launches MCP servers as subprocesses and exposes the small
// slice of the client protocol the smoke run needs: tool listing and tool
// invocation over a stdio session.
package session

import (
	"context"
	"errors"
)

// ErrSessionMissing reports that no session exists for a server name.
var ErrSessionMissing = errors.New("session: no session for server")

// ErrClosed is returned by OpenAll once CloseAll has run.
var ErrClosed = errors.New("session: manager closed")

// Tool is a tool advertised by a server.
type Tool struct {
	Name        string
	Description string
}

// ContentBlock is one block of a tool result. Non-text blocks carry only
// their type.
type ContentBlock struct {
	Type string
	Text string
}

// CallResult is the outcome of a tool invocation. Content may be empty.
type CallResult struct {
	Content []ContentBlock
	IsError bool
}

// Session is a live connection to one server.
type Session interface {
	// ListTools returns every tool the server advertises, following
	// pagination to the end.
	ListTools(ctx context.Context) ([]Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*CallResult, error)
	Close() error
}

// Connector starts a server and opens a session to it.
type Connector interface {
	Connect(ctx context.Context, name string, entry ServerEntry) (Session, error)
}
