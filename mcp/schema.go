package mcp

import (
	"github.com/sweetpotato0/ai-desk/tool"
)

// inputSchema renders a tool's parameters as a JSON schema object.
func inputSchema(t *tool.Tool) map[string]any {
	properties := make(map[string]any, len(t.Parameters))
	required := make([]string, 0, len(t.Parameters))
	for _, p := range t.Parameters {
		properties[p.Name] = parameterSchema(p)
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func parameterSchema(p tool.Parameter) map[string]any {
	schema := map[string]any{"type": p.Type}
	if p.Description != "" {
		schema["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		schema["enum"] = p.Enum
	}
	if p.MinLength > 0 {
		schema["minLength"] = p.MinLength
	}
	if p.Range != nil {
		schema["minimum"] = p.Range.Min
		schema["maximum"] = p.Range.Max
	}
	if p.Items != nil {
		schema["items"] = parameterSchema(*p.Items)
	}
	return schema
}
