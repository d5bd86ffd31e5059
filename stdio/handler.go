package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ggoodman/hevy-mcp-smoke/internal/jsonrpc"
	"github.com/ggoodman/hevy-mcp-smoke/internal/logctx"
	"github.com/ggoodman/hevy-mcp-smoke/mcp"
	"github.com/ggoodman/hevy-mcp-smoke/mcpservice"
)

// ErrAlreadyServing is returned when Serve is called more than once.
var ErrAlreadyServing = errors.New("stdio: handler already serving")

const defaultMaxMessageSize = 4 << 20

// Handler is a single-connection stdio transport that reads JSON-RPC messages
// from an io.Reader and writes responses to an io.Writer. By default, it uses
// os.Stdin and os.Stdout.
//
// The handler is transport-only; it delegates all MCP semantics to the
// provided mcpservice.Server.
type Handler struct {
	srv *mcpservice.Server

	r io.Reader
	w io.Writer
	l *slog.Logger

	maxMessageSize int

	writeMu     sync.Mutex
	serving     atomic.Bool
	initialized bool
}

// NewHandler constructs a stdio Handler with defaults and applies options.
func NewHandler(srv *mcpservice.Server, opts ...Option) *Handler {
	h := &Handler{
		srv:            srv,
		r:              os.Stdin,
		w:              os.Stdout,
		l:              slog.Default(),
		maxMessageSize: defaultMaxMessageSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve runs the stdio event loop until EOF on the reader or the context is
// canceled. EOF is a clean shutdown and returns nil. Messages are handled one
// at a time in arrival order.
func (h *Handler) Serve(ctx context.Context) error {
	if !h.serving.CompareAndSwap(false, true) {
		return ErrAlreadyServing
	}

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(h.r)
		sc.Buffer(make([]byte, 0, min(64*1024, h.maxMessageSize)), h.maxMessageSize)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("stdio: read: %w", err)
			}
			h.l.DebugContext(ctx, "stdio: input closed")
			return nil
		case line := <-lines:
			if len(line) == 0 {
				continue
			}
			if err := h.handleLine(ctx, line); err != nil {
				return err
			}
		}
	}
}

// handleLine processes one inbound frame. Only write failures are returned;
// protocol problems are answered on the wire.
func (h *Handler) handleLine(ctx context.Context, line []byte) error {
	if !json.Valid(line) {
		h.l.WarnContext(ctx, "stdio: unparseable message", slog.Int("bytes", len(line)))
		return h.write(jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, "parse error", nil))
	}

	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		h.l.WarnContext(ctx, "stdio: invalid message", slog.String("err", err.Error()))
		return h.write(jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInvalidRequest, err.Error(), nil))
	}

	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
		Method: msg.Method,
		ID:     msg.ID.String(),
		Type:   msg.Type(),
	})

	switch msg.Type() {
	case jsonrpc.TypeResponse:
		// We never issue requests to the client, so any response is unsolicited.
		h.l.DebugContext(ctx, "stdio: ignoring unsolicited response")
		return nil
	case jsonrpc.TypeNotification:
		h.handleNotification(ctx, msg.AsRequest())
		return nil
	}

	req := msg.AsRequest()
	result, err := h.dispatch(ctx, req)
	if err != nil {
		h.l.DebugContext(ctx, "stdio: request failed", slog.String("err", err.Error()))
		return h.write(jsonrpc.ErrorResponseFor(req.ID, err))
	}
	resp, err := jsonrpc.NewResultResponse(req.ID, result)
	if err != nil {
		return h.write(jsonrpc.ErrorResponseFor(req.ID, err))
	}
	return h.write(resp)
}

func (h *Handler) handleNotification(ctx context.Context, req *jsonrpc.Request) {
	switch mcp.Method(req.Method) {
	case mcp.InitializedNotificationMethod:
		h.l.DebugContext(ctx, "stdio: client initialized")
	case mcp.CancelledNotificationMethod:
		// Requests are handled synchronously, so there is never anything in flight to cancel.
	default:
		h.l.DebugContext(ctx, "stdio: ignoring notification")
	}
}

func (h *Handler) dispatch(ctx context.Context, req *jsonrpc.Request) (any, error) {
	method := mcp.Method(req.Method)
	if method != mcp.InitializeMethod && method != mcp.PingMethod && !h.initialized {
		return nil, jsonrpc.Errorf(jsonrpc.ErrorCodeInvalidRequest, "session not initialized")
	}

	switch method {
	case mcp.InitializeMethod:
		var ir mcp.InitializeRequest
		if err := decodeParams(req.Params, &ir); err != nil {
			return nil, err
		}
		res, err := h.srv.Initialize(ctx, &ir)
		if err != nil {
			return nil, err
		}
		h.initialized = true
		h.l.DebugContext(ctx, "stdio: initialize",
			slog.String("client", ir.ClientInfo.Name),
			slog.String("requested_version", ir.ProtocolVersion),
			slog.String("negotiated_version", res.ProtocolVersion),
		)
		return res, nil

	case mcp.PingMethod:
		return mcp.EmptyResult{}, nil

	case mcp.ToolsListMethod:
		var lr mcp.ListToolsRequest
		if err := decodeParams(req.Params, &lr); err != nil {
			return nil, err
		}
		return h.srv.ListTools(ctx, lr.Cursor)

	case mcp.ToolsCallMethod:
		var cr mcp.CallToolRequestReceived
		if err := decodeParams(req.Params, &cr); err != nil {
			return nil, err
		}
		ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: cr.Name})
		res, err := h.srv.CallTool(ctx, &cr)
		if errors.Is(err, mcpservice.ErrToolNotFound) {
			return nil, jsonrpc.Errorf(jsonrpc.ErrorCodeInvalidParams, "unknown tool: %s", cr.Name)
		}
		if err != nil {
			return nil, err
		}
		h.l.DebugContext(ctx, "stdio: tool called", slog.Bool("is_error", res.IsError), slog.Int("blocks", len(res.Content)))
		return res, nil

	default:
		return nil, jsonrpc.Errorf(jsonrpc.ErrorCodeMethodNotFound, "method not found: %s", req.Method)
	}
}

func decodeParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return jsonrpc.Errorf(jsonrpc.ErrorCodeInvalidParams, "invalid params: %v", err)
	}
	return nil
}

func (h *Handler) write(resp *jsonrpc.Response) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("stdio: marshal response: %w", err)
	}
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if _, err := h.w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("stdio: write: %w", err)
	}
	return nil
}
