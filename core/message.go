package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a Message.
type Role string

const (
	// RoleUser marks a message typed by the human participant.
	RoleUser Role = "user"
	// RoleAgent marks a message produced by one of the agent personas.
	RoleAgent Role = "agent"
	// RoleToolResult marks the outcome of a tool invocation fed back to a model.
	RoleToolResult Role = "tool"
)

// ToolCall is a single tool invocation requested by a model. Arguments holds
// the raw argument payload exactly as the model produced it (normally a JSON
// object, but callers must tolerate anything).
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry of a thread's history. After creation it should be
// treated as immutable.
//
// ToolCalls and ToolCallID are only populated on the transient messages of a
// search round-trip; persisted history holds User and Agent messages.
type Message struct {
	ID         string     `json:"id"`
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	AgentID    AgentID    `json:"agent_id,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// NewUserMessage creates a user-authored message.
func NewUserMessage(content string) Message {
	return Message{ID: NewID(), Role: RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

// NewAgentMessage creates a message authored by the given agent.
func NewAgentMessage(agentID AgentID, content string) Message {
	return Message{ID: NewID(), Role: RoleAgent, Content: content, AgentID: agentID, Timestamp: time.Now().UTC()}
}

// NewToolResultMessage wraps a tool result so it can be replayed to a model
// alongside the call that requested it.
func NewToolResultMessage(toolCallID, content string) Message {
	return Message{ID: NewID(), Role: RoleToolResult, Content: content, ToolCallID: toolCallID, Timestamp: time.Now().UTC()}
}

// IsUser reports whether the message was authored by the user.
func (m Message) IsUser() bool { return m.Role == RoleUser }

// IsAgent reports whether the message was authored by an agent.
func (m Message) IsAgent() bool { return m.Role == RoleAgent }

// NewID generates a new unique identifier for messages.
func NewID() string { return uuid.NewString() }
