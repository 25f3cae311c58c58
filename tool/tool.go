package tool

import (
	"encoding/json"
	"fmt"
)

// Name identifies one of the generation tools exposed by the router.
type Name string

const (
	Write Name = "write"
	Ideas Name = "ideas"
	Focus Name = "focus"
)

// Names lists the recognized tool names in a stable order.
func Names() []Name {
	return []Name{Write, Ideas, Focus}
}

// Parse returns the Name for s and whether it is recognized.
func Parse(s string) (Name, bool) {
	for _, n := range Names() {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

// Request is the inbound envelope. Payload stays raw until the tool is known.
type Request struct {
	Tool    Name            `json:"tool"`
	Payload json.RawMessage `json:"payload"`
}

// Range is an inclusive integer bound.
type Range struct {
	Min int
	Max int
}

// Parameter defines a tool parameter
type Parameter struct {
	Name        string     `json:"name"`
	Type        string     `json:"type"` // string, integer, array
	Description string     `json:"description"`
	Required    bool       `json:"required"`
	Enum        []string   `json:"enum,omitempty"`
	MinLength   int        `json:"minLength,omitempty"`
	Range       *Range     `json:"-"`
	Items       *Parameter `json:"items,omitempty"`

	// MinLengthMessage replaces the default message for a too short string.
	MinLengthMessage string `json:"-"`
}

// Tool describes the payload contract of a tool.
type Tool struct {
	Name        Name        `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
}

var definitions = map[Name]*Tool{
	Write: {
		Name:        Write,
		Description: "Draft a piece of prose about a topic with an optional tone, length and outline",
		Parameters: []Parameter{
			{Name: "topic", Type: "string", Description: "What to write about", Required: true, MinLength: 1, MinLengthMessage: "Topic is required"},
			{Name: "tone", Type: "string", Description: "Voice of the draft", Enum: stringsOf(Tones())},
			{Name: "length", Type: "string", Description: "Approximate size of the draft", Enum: stringsOf(Lengths())},
			{Name: "outline", Type: "array", Description: "Ordered sections to follow", Items: &Parameter{Type: "string", MinLength: 1}},
		},
	},
	Ideas: {
		Name:        Ideas,
		Description: "Generate ideas for the idea board",
		Parameters: []Parameter{
			{Name: "topic", Type: "string", Description: "Theme of the ideas", Required: true, MinLength: 1},
			{Name: "count", Type: "integer", Description: "How many ideas to generate", Range: &Range{Min: 1, Max: 10}},
			{Name: "tags", Type: "array", Description: "Areas to focus on", Items: &Parameter{Type: "string", MinLength: 1}},
		},
	},
	Focus: {
		Name:        Focus,
		Description: "Suggest daily priorities for the focus tracker",
		Parameters: []Parameter{
			{Name: "context", Type: "string", Description: "The user's current situation and goals", Required: true, MinLength: 1, MinLengthMessage: "Context is required"},
			{Name: "existingPriorities", Type: "array", Description: "Current priorities to avoid duplicating", Items: &Parameter{Type: "string"}},
			{Name: "count", Type: "integer", Description: "How many priorities to suggest", Range: &Range{Min: 1, Max: 5}},
		},
	},
}

// Lookup returns the definition of the named tool.
func Lookup(name Name) (*Tool, error) {
	t, ok := definitions[name]
	if !ok {
		return nil, fmt.Errorf("tool %s not found", name)
	}
	return t, nil
}

// List returns all tool definitions in the order of Names.
func List() []*Tool {
	tools := make([]*Tool, 0, len(definitions))
	for _, n := range Names() {
		tools = append(tools, definitions[n])
	}
	return tools
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
