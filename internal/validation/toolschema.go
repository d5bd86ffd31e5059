package validation

import (
	"fmt"

	"github.com/ggoodman/hevy-mcp-smoke/mcp"
)

// ToolInputSchema validates and normalizes a tool input schema in-place.
// It de-duplicates Required preserving first-occurrence order.
func ToolInputSchema(s *mcp.ToolInputSchema) error {
	if s == nil {
		return fmt.Errorf("nil schema")
	}
	if s.Type != "object" {
		return fmt.Errorf("tool input schema type must be object")
	}
	seen := map[string]struct{}{}
	var req []string
	for _, name := range s.Required {
		if _, ok := s.Properties[name]; !ok {
			return fmt.Errorf("required property missing: %s", name)
		}
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			req = append(req, name)
		}
	}
	s.Required = req
	for name, p := range s.Properties {
		if err := property(name, p); err != nil {
			return err
		}
	}
	return nil
}

func property(name string, p mcp.SchemaProperty) error {
	if p.Type == "" {
		return fmt.Errorf("property %s missing type", name)
	}
	if p.MinLength != nil && p.Type != "string" {
		return fmt.Errorf("property %s has minLength but is not a string", name)
	}
	if p.Minimum != nil && p.Maximum != nil && *p.Minimum > *p.Maximum {
		return fmt.Errorf("property %s minimum greater than maximum", name)
	}
	if p.Type == "array" {
		if p.Items == nil {
			return fmt.Errorf("array property %s missing items", name)
		}
		return property(name+"[]", *p.Items)
	}
	return nil
}
