package prompt

import (
	"fmt"

	"github.com/sweetpotato0/ai-desk/tool"
)

// Names of the built-in templates. They match the tool names.
const (
	Write = string(tool.Write)
	Ideas = string(tool.Ideas)
	Focus = string(tool.Focus)

	// FocusSystem is the system prompt sent with the focus template.
	FocusSystem = "focus.system"
)

// ToneInstructions describes how each tone should read.
var ToneInstructions = map[tool.Tone]string{
	tool.ToneNeutral:  "Use a neutral, professional tone",
	tool.ToneFormal:   "Use a formal, academic tone with proper structure",
	tool.ToneCasual:   "Use a casual, conversational tone",
	tool.ToneFriendly: "Use a warm, friendly tone that's approachable",
}

// LengthInstructions describes the size of each length bucket.
var LengthInstructions = map[tool.Length]string{
	tool.LengthShort:  "Keep it concise (2-3 paragraphs)",
	tool.LengthMedium: "Write a well-developed piece (4-6 paragraphs)",
	tool.LengthLong:   "Write a comprehensive piece (8+ paragraphs)",
}

// Vars: Topic, Tone, Length, ToneInstruction, LengthInstruction, Outline.
const writeTemplate = `Write a {{.Length}} {{.Tone}} draft about "{{.Topic}}".

{{.ToneInstruction}}
{{.LengthInstruction}}
{{- if .Outline}}

Follow this outline:
{{- range $i, $item := .Outline}}
{{inc $i}}. {{$item}}
{{- end}}
{{- end}}

Make it engaging, well-structured, and informative.`

// Vars: Topic, Count, Tags.
const ideasTemplate = `Generate {{.Count}} creative and practical ideas related to "{{.Topic}}".
{{- if .Tags}}

Focus on these areas: {{join .Tags ", "}}
{{- end}}

For each idea, provide:
- A clear, actionable concept
- Relevant tags/categories

Return ONLY a JSON array in this format:
[{"content": "Idea description", "tags": ["tag1", "tag2"]}]`

const focusSystemTemplate = `You are a productivity coach. You suggest clear, actionable daily priorities and answer with JSON only.`

// Vars: Context, Count, ExistingPriorities.
const focusTemplate = `Based on the user's context, suggest {{.Count}} clear, actionable daily priorities.

User Context: "{{.Context}}"
{{- if .ExistingPriorities}}

Current priorities to avoid duplicating:
{{- range $i, $p := .ExistingPriorities}}
{{inc $i}}. {{$p}}
{{- end}}
{{- end}}

For each priority, provide:
- A specific, achievable task (1-2 sentences)
- Why this is important right now
- Category (work, personal, health, learning, etc.)

Return ONLY a JSON array in this format:
[{"priority": "Specific task description", "reason": "Why this matters", "category": "work"}]`

// NewBuiltinManager returns a manager holding the prompts of every tool.
func NewBuiltinManager() (*Manager, error) {
	m := NewManager()
	builtins := []struct{ name, content string }{
		{Write, writeTemplate},
		{Ideas, ideasTemplate},
		{Focus, focusTemplate},
		{FocusSystem, focusSystemTemplate},
	}
	for _, b := range builtins {
		if err := m.RegisterString(b.name, b.content); err != nil {
			return nil, fmt.Errorf("register %s prompt: %w", b.name, err)
		}
	}
	return m, nil
}
