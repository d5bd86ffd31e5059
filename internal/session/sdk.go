package session

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"sort"
	"strings"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ClientName and ClientVersion identify the harness to servers.
const (
	ClientName    = "hevy-smoke"
	ClientVersion = "0.1.0"
)

// SDKConnector launches servers as subprocesses and talks to them over stdio
// with the MCP go-sdk client.
type SDKConnector struct {
	Logger *slog.Logger
	// BaseEnv is the environment the entry's Env is layered on. Nil means
	// os.Environ().
	BaseEnv []string
}

// Connect starts entry and performs the MCP handshake. There is no timeout
// beyond ctx.
func (c *SDKConnector) Connect(ctx context.Context, name string, entry ServerEntry) (Session, error) {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}

	cmd := exec.Command(entry.Command, entry.Args...)
	cmd.Env = mergeEnv(c.baseEnv(), entry.Env)
	stderr := &lineLogger{ctx: ctx, log: log}
	cmd.Stderr = stderr

	client := sdk.NewClient(&sdk.Implementation{Name: ClientName, Version: ClientVersion}, &sdk.ClientOptions{})
	cs, err := client.Connect(ctx, &sdk.CommandTransport{Command: cmd}, &sdk.ClientSessionOptions{})
	if err != nil {
		stderr.Flush()
		return nil, fmt.Errorf("start %s: %w", entry.CommandLine(), err)
	}
	return &sdkSession{cs: cs, stderr: stderr}, nil
}

func (c *SDKConnector) baseEnv() []string {
	if c.BaseEnv != nil {
		return c.BaseEnv
	}
	return os.Environ()
}

// mergeEnv layers overrides on base, replacing existing keys in place and
// appending new ones in sorted order.
func mergeEnv(base []string, overrides map[string]string) []string {
	out := slices.Clone(base)
	seen := make(map[string]bool, len(overrides))
	for i, kv := range out {
		k, _, ok := cutEnv(kv)
		if !ok {
			continue
		}
		if v, override := overrides[k]; override {
			out[i] = k + "=" + v
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+overrides[k])
	}
	return out
}

func cutEnv(kv string) (string, string, bool) {
	// Skip the first byte so Windows-style "=C:=C:\" entries keep their key.
	if len(kv) == 0 {
		return "", "", false
	}
	i := strings.IndexByte(kv[1:], '=')
	if i < 0 {
		return "", "", false
	}
	return kv[:i+1], kv[i+2:], true
}

type sdkSession struct {
	cs     *sdk.ClientSession
	stderr *lineLogger
}

func (s *sdkSession) ListTools(ctx context.Context) ([]Tool, error) {
	var tools []Tool
	params := &sdk.ListToolsParams{}
	for {
		res, err := s.cs.ListTools(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("tools/list: %w", err)
		}
		for _, t := range res.Tools {
			if t == nil {
				continue
			}
			tools = append(tools, Tool{Name: t.Name, Description: t.Description})
		}
		if res.NextCursor == "" {
			return tools, nil
		}
		params = &sdk.ListToolsParams{Cursor: res.NextCursor}
	}
}

func (s *sdkSession) CallTool(ctx context.Context, name string, args map[string]any) (*CallResult, error) {
	res, err := s.cs.CallTool(ctx, &sdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("tools/call %s: %w", name, err)
	}
	out := &CallResult{IsError: res.IsError}
	for _, c := range res.Content {
		switch v := c.(type) {
		case *sdk.TextContent:
			out.Content = append(out.Content, ContentBlock{Type: "text", Text: v.Text})
		case *sdk.ImageContent:
			out.Content = append(out.Content, ContentBlock{Type: "image"})
		default:
			out.Content = append(out.Content, ContentBlock{Type: fmt.Sprintf("%T", c)})
		}
	}
	return out, nil
}

func (s *sdkSession) Close() error {
	err := s.cs.Close()
	s.stderr.Flush()
	return err
}

// lineLogger forwards a child's stderr to slog one line at a time.
type lineLogger struct {
	ctx context.Context
	log *slog.Logger

	mu  sync.Mutex
	buf []byte
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf = append(l.buf, p...)
	for {
		i := bytes.IndexByte(l.buf, '\n')
		if i < 0 {
			break
		}
		l.emit(l.buf[:i])
		l.buf = l.buf[i+1:]
	}
	return len(p), nil
}

// Flush logs any trailing partial line.
func (l *lineLogger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.buf) > 0 {
		l.emit(l.buf)
		l.buf = nil
	}
}

func (l *lineLogger) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 {
		return
	}
	l.log.DebugContext(l.ctx, "server stderr", slog.String("line", string(line)))
}
