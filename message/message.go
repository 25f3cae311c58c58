package message

import "strings"

// Role represents the role of the message sender
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single chat turn handed to a completion backend.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a new message with the given role and content
func NewMessage(role Role, content string) *Message {
	return &Message{Role: role, Content: content}
}

// User creates a user message.
func User(content string) *Message {
	return NewMessage(RoleUser, content)
}

// System creates a system message.
func System(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// Split separates system messages from the conversation. Backends whose API
// takes the system prompt out of band use it; the system contents are joined
// with a blank line.
func Split(msgs []*Message) (system string, rest []*Message) {
	var parts []string
	rest = make([]*Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		if msg.Role == RoleSystem {
			parts = append(parts, msg.Content)
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(parts, "\n\n"), rest
}
