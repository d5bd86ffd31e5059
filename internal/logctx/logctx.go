// Package logctx carries run-scoped attributes on the context and adds them
// to every slog record logged with that context.
package logctx

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

type Handler struct {
	slog.Handler
}

// NewLogger returns a text logger writing to w at the given level, wrapped so
// context attributes are attached.
func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(Handler{slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})})
}

// ParseLevel accepts the names understood by slog ("debug", "info", "warn",
// "error", optionally with an offset such as "info+2").
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, err
	}
	return lvl, nil
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if rd, ok := ctx.Value(runDataKey{}).(*RunData); ok {
		r.AddAttrs(slog.Group("run",
			slog.String("id", rd.RunID),
			slog.String("launch", rd.Launch),
			slog.String("package", rd.Package),
		))
	}

	if sd, ok := ctx.Value(serverDataKey{}).(*ServerData); ok {
		r.AddAttrs(slog.Group("server",
			slog.String("name", sd.Name),
			slog.String("command", sd.Command),
		))
	}

	if msg, ok := ctx.Value(rpcMsg{}).(*RPCMessage); ok {
		r.AddAttrs(slog.Group("rpc",
			slog.String("method", msg.Method),
			slog.String("id", msg.ID),
			slog.String("type", msg.Type),
		))
	}

	if td, ok := ctx.Value(toolCallDataKey{}).(*ToolCallData); ok {
		r.AddAttrs(slog.Group("tool",
			slog.String("name", td.ToolName),
		))
	}

	return h.Handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{h.Handler.WithGroup(name)}
}

type runDataKey struct{}

// RunData identifies one smoke run.
type RunData struct {
	RunID   string
	Launch  string
	Package string
}

// NewRunData allocates a fresh random run id.
func NewRunData(launch, pkg string) *RunData {
	return &RunData{RunID: uuid.NewString(), Launch: launch, Package: pkg}
}

func WithRunData(ctx context.Context, data *RunData) context.Context {
	return context.WithValue(ctx, runDataKey{}, data)
}

type serverDataKey struct{}

type ServerData struct {
	Name    string
	Command string
}

func WithServerData(ctx context.Context, data *ServerData) context.Context {
	return context.WithValue(ctx, serverDataKey{}, data)
}

type rpcMsg struct{}

type RPCMessage struct {
	Method string
	ID     string
	Type   string
}

func WithRPCMessage(ctx context.Context, msg *RPCMessage) context.Context {
	return context.WithValue(ctx, rpcMsg{}, msg)
}

type toolCallDataKey struct{}

type ToolCallData struct {
	ToolName string
}

func WithToolCallData(ctx context.Context, data *ToolCallData) context.Context {
	return context.WithValue(ctx, toolCallDataKey{}, data)
}
