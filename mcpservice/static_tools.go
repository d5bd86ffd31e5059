package mcpservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/ggoodman/hevy-mcp-smoke/internal/validation"
	"github.com/ggoodman/hevy-mcp-smoke/mcp"
	"github.com/invopop/jsonschema"
)

// ErrToolNotFound is returned by CallTool for names that are not registered.
var ErrToolNotFound = errors.New("tool not found")

// ToolHandler is the function signature used to handle a tool invocation.
type ToolHandler func(ctx context.Context, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error)

// StaticTool pairs an MCP tool descriptor with its handler.
type StaticTool struct {
	Descriptor mcp.Tool
	Handler    ToolHandler
}

// ToolOption configures NewTool behavior.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description string
}

// WithToolDescription sets the tool description used in listings.
func WithToolDescription(desc string) ToolOption {
	return func(c *toolConfig) { c.description = desc }
}

// NewTool constructs a StaticTool from a typed args struct A. It reflects the
// input schema from A using invopop/jsonschema and wraps fn with JSON decoding
// of the raw arguments. Decoding failures become error results rather than
// protocol errors, matching how the hevy server reports bad input.
//
// NewTool panics if A does not reflect to a valid object schema.
func NewTool[A any](name string, fn func(ctx context.Context, args A) (*mcp.CallToolResult, error), opts ...ToolOption) StaticTool {
	cfg := toolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	schema := reflectToMCPInputSchema[A]()
	if err := validation.ToolInputSchema(&schema); err != nil {
		panic(fmt.Sprintf("mcpservice: tool %q has an unusable input schema: %v", name, err))
	}
	desc := mcp.Tool{
		Name:        name,
		Description: cfg.description,
		InputSchema: schema,
	}

	handler := func(ctx context.Context, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
		var a A
		if len(req.Arguments) > 0 && !bytes.Equal(req.Arguments, []byte("null")) {
			dec := json.NewDecoder(bytes.NewReader(req.Arguments))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&a); err != nil {
				return Errorf("invalid arguments: %v", err), nil
			}
		}
		return fn(ctx, a)
	}

	return StaticTool{Descriptor: desc, Handler: handler}
}

// reflectToMCPInputSchema reflects a Go type A into a jsonschema.Schema, and
// converts it to the simplified mcp.ToolInputSchema.
func reflectToMCPInputSchema[A any]() mcp.ToolInputSchema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(new(A))

	out := mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]mcp.SchemaProperty{},
	}
	if s == nil || s.Type != "object" {
		return out
	}
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			out.Properties[el.Key] = toMCPProperty(el.Value)
		}
	}
	if len(s.Required) > 0 {
		out.Required = append(out.Required, s.Required...)
	}
	return out
}

// toMCPProperty recursively maps a jsonschema.Schema to the simplified MCP SchemaProperty.
func toMCPProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
		MinLength:   s.MinLength,
		Minimum:     numberPtr(s.Minimum),
		Maximum:     numberPtr(s.Maximum),
		Default:     s.Default,
	}
	if s.Type == "array" && s.Items != nil {
		item := toMCPProperty(s.Items)
		p.Items = &item
	}
	return p
}

func numberPtr(n json.Number) *float64 {
	if n == "" {
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil
	}
	return &f
}

// ToolsContainer owns a threadsafe set of tool descriptors and handlers.
// Listing preserves registration order and pages by a numeric offset cursor.
type ToolsContainer struct {
	mu       sync.RWMutex
	tools    []mcp.Tool
	handlers map[string]ToolHandler

	pageSize int // pagination size for ListTools (default 50)
}

// NewToolsContainer constructs a new ToolsContainer with the given tool definitions.
func NewToolsContainer(defs ...StaticTool) *ToolsContainer {
	st := &ToolsContainer{pageSize: 50}
	st.Replace(defs...)
	return st
}

// SetPageSize sets the pagination size used by ListTools.
// A non-positive value is ignored.
func (st *ToolsContainer) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	st.mu.Lock()
	st.pageSize = n
	st.mu.Unlock()
}

// Replace atomically replaces the entire tool set. On duplicate names the
// last definition wins.
func (st *ToolsContainer) Replace(defs ...StaticTool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.tools = make([]mcp.Tool, 0, len(defs))
	st.handlers = make(map[string]ToolHandler, len(defs))
	for _, d := range defs {
		name := d.Descriptor.Name
		if _, dup := st.handlers[name]; dup {
			st.removeLocked(name)
		}
		st.tools = append(st.tools, d.Descriptor)
		st.handlers[name] = d.Handler
	}
}

// Remove removes a tool by name. Returns true if removed.
func (st *ToolsContainer) Remove(name string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.removeLocked(name)
}

func (st *ToolsContainer) removeLocked(name string) bool {
	n := 0
	removed := false
	for _, t := range st.tools {
		if t.Name == name {
			removed = true
			continue
		}
		st.tools[n] = t
		n++
	}
	st.tools = st.tools[:n]
	delete(st.handlers, name)
	return removed
}

// ListTools returns one page of tools. An empty or unparseable cursor
// restarts from the first tool.
func (st *ToolsContainer) ListTools(ctx context.Context, cursor string) (*mcp.ListToolsResult, error) {
	st.mu.RLock()
	all := make([]mcp.Tool, len(st.tools))
	copy(all, st.tools)
	pageSize := st.pageSize
	st.mu.RUnlock()

	start := parseCursor(cursor)
	if start > len(all) {
		start = 0
	}
	end := min(start+pageSize, len(all))

	res := &mcp.ListToolsResult{Tools: all[start:end]}
	if end < len(all) {
		res.NextCursor = strconv.Itoa(end)
	}
	return res, nil
}

// CallTool dispatches a request to the named tool if present.
func (st *ToolsContainer) CallTool(ctx context.Context, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
	if req == nil || req.Name == "" {
		return nil, fmt.Errorf("invalid tool request: missing name")
	}
	st.mu.RLock()
	h := st.handlers[req.Name]
	st.mu.RUnlock()
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, req.Name)
	}
	return h(ctx, req)
}

func parseCursor(cursor string) int {
	if cursor == "" {
		return 0
	}
	n, err := strconv.Atoi(cursor)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// TextResult is a small helper to build a text CallToolResult.
func TextResult(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: s}}}
}

// JSONResult renders v as two-space indented JSON in a single text block.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return TextResult(string(b)), nil
}

// Errorf returns an error CallToolResult with a single text block and IsError=true.
func Errorf(format string, a ...any) *mcp.CallToolResult {
	msg := fmt.Sprintf(format, a...)
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: msg}}, IsError: true}
}
