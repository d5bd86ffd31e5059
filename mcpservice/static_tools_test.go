package mcpservice

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ggoodman/hevy-mcp-smoke/mcp"
)

type pageArgs struct {
	Page     int `json:"page,omitempty" jsonschema:"minimum=1,default=1"`
	PageSize int `json:"pageSize,omitempty" jsonschema:"minimum=1,maximum=10,default=5"`
}

func echoPageTool(name string) StaticTool {
	return NewTool(name, func(ctx context.Context, a pageArgs) (*mcp.CallToolResult, error) {
		return JSONResult(a)
	}, WithToolDescription("echo paging args"))
}

func TestNewTool_ReflectsInputSchema(t *testing.T) {
	tool := echoPageTool("get-things")

	schema := tool.Descriptor.InputSchema
	if schema.Type != "object" {
		t.Fatalf("schema type = %q, want object", schema.Type)
	}
	if len(schema.Required) != 0 {
		t.Fatalf("omitempty fields must not be required, got %v", schema.Required)
	}
	ps, ok := schema.Properties["pageSize"]
	if !ok {
		t.Fatalf("missing pageSize property: %+v", schema.Properties)
	}
	if ps.Type != "integer" {
		t.Fatalf("pageSize type = %q, want integer", ps.Type)
	}
	if ps.Minimum == nil || *ps.Minimum != 1 || ps.Maximum == nil || *ps.Maximum != 10 {
		t.Fatalf("unexpected pageSize bounds: min=%v max=%v", ps.Minimum, ps.Maximum)
	}
	if tool.Descriptor.Description != "echo paging args" {
		t.Fatalf("description not applied: %q", tool.Descriptor.Description)
	}
}

func TestNewTool_DecodesArguments(t *testing.T) {
	c := NewToolsContainer(echoPageTool("get-things"))

	res, err := c.CallTool(context.Background(), &mcp.CallToolRequestReceived{
		Name:      "get-things",
		Arguments: json.RawMessage(`{"page":2,"pageSize":3}`),
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError || len(res.Content) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	var got pageArgs
	if err := json.Unmarshal([]byte(res.Content[0].Text), &got); err != nil {
		t.Fatalf("result text is not JSON: %v", err)
	}
	if got.Page != 2 || got.PageSize != 3 {
		t.Fatalf("decoded args = %+v", got)
	}
}

func TestNewTool_UnknownFieldsBecomeErrorResult(t *testing.T) {
	c := NewToolsContainer(echoPageTool("get-things"))

	res, err := c.CallTool(context.Background(), &mcp.CallToolRequestReceived{
		Name:      "get-things",
		Arguments: json.RawMessage(`{"page":1,"bogus":true}`),
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected error result, got %+v", res)
	}
}

func TestToolsContainer_UnknownTool(t *testing.T) {
	c := NewToolsContainer()
	_, err := c.CallTool(context.Background(), &mcp.CallToolRequestReceived{Name: "missing"})
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestToolsContainer_Pagination(t *testing.T) {
	c := NewToolsContainer(echoPageTool("a"), echoPageTool("b"), echoPageTool("c"))
	c.SetPageSize(2)

	var names []string
	cursor := ""
	for range 3 {
		page, err := c.ListTools(context.Background(), cursor)
		if err != nil {
			t.Fatalf("ListTools: %v", err)
		}
		for _, tool := range page.Tools {
			names = append(names, tool.Name)
		}
		cursor = page.NextCursor
		if cursor == "" {
			break
		}
	}
	if len(names) != 3 || names[0] != "a" || names[2] != "c" {
		t.Fatalf("unexpected listing order: %v", names)
	}
	if cursor != "" {
		t.Fatalf("expected pagination to finish, cursor=%q", cursor)
	}
}

func TestToolsContainer_Remove(t *testing.T) {
	c := NewToolsContainer(echoPageTool("a"), echoPageTool("b"))
	if !c.Remove("a") || c.Remove("a") {
		t.Fatal("remove should succeed exactly once")
	}
	page, err := c.ListTools(context.Background(), "")
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(page.Tools) != 1 || page.Tools[0].Name != "b" {
		t.Fatalf("unexpected tools after remove: %+v", page.Tools)
	}
	if _, err := c.CallTool(context.Background(), &mcp.CallToolRequestReceived{Name: "a"}); !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("removed tool still callable: %v", err)
	}
}

type lookupArgs struct {
	ID string `json:"id" jsonschema:"minLength=1"`
}

func TestNewTool_AdvertisesMinLength(t *testing.T) {
	tool := NewTool("lookup", func(ctx context.Context, a lookupArgs) (*mcp.CallToolResult, error) {
		return TextResult(a.ID), nil
	})

	schema := tool.Descriptor.InputSchema
	id := schema.Properties["id"]
	if id.MinLength == nil || *id.MinLength != 1 {
		t.Fatalf("minLength not carried: %+v", id)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "id" {
		t.Fatalf("required = %v", schema.Required)
	}
	b, err := json.Marshal(schema)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	var wire struct {
		Properties map[string]map[string]any `json:"properties"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}
	if wire.Properties["id"]["minLength"] != float64(1) {
		t.Fatalf("minLength missing from wire schema: %s", b)
	}
}
