package core

import (
	"context"
	"time"
)

// Thread is one conversation: an append-only message history plus the id of
// the agent that answered last.
//
// Contract:
//   - Messages only grow; existing entries are never reordered or replaced
//   - LastAgent tracks the AgentID of the most recent agent message and is
//     maintained exclusively by Append
//   - Clone performs a deep copy of the message slice for safe divergence
//
// A Thread value is not synchronized. Stores hand out clones so callers may
// read and mutate their copy freely.
type Thread struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	LastAgent AgentID   `json:"last_agent,omitempty"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

// NewThread creates an empty thread with the given ID.
func NewThread(id string) *Thread {
	now := time.Now().UTC()
	return &Thread{ID: id, Messages: []Message{}, Created: now, Updated: now}
}

// Append adds a message to the end of the history and updates LastAgent when
// the message was authored by an agent.
func (t *Thread) Append(msg Message) {
	t.Messages = append(t.Messages, msg)
	if msg.IsAgent() && msg.AgentID != "" {
		t.LastAgent = msg.AgentID
	}
	t.Updated = time.Now().UTC()
}

// Len returns the number of messages in the thread.
func (t *Thread) Len() int { return len(t.Messages) }

// LastMessage returns the most recent message, if any.
func (t *Thread) LastMessage() (Message, bool) {
	if len(t.Messages) == 0 {
		return Message{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}

// LastUserMessage returns the most recent user-authored message, if any.
func (t *Thread) LastUserMessage() (Message, bool) {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].IsUser() {
			return t.Messages[i], true
		}
	}
	return Message{}, false
}

// Recent returns up to n trailing messages in chronological order.
func (t *Thread) Recent(n int) []Message {
	if n <= 0 {
		return nil
	}
	start := len(t.Messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(t.Messages)-start)
	copy(out, t.Messages[start:])
	return out
}

// Clone returns a deep copy of the thread safe for independent mutation.
func (t *Thread) Clone() *Thread {
	clone := *t
	clone.Messages = make([]Message, len(t.Messages))
	copy(clone.Messages, t.Messages)
	for i := range clone.Messages {
		if calls := clone.Messages[i].ToolCalls; calls != nil {
			clone.Messages[i].ToolCalls = append([]ToolCall(nil), calls...)
		}
	}
	return &clone
}

// ThreadStore persists threads and their message history.
//
// Implementations must be safe for concurrent use across different thread
// ids. No ordering guarantee is made for concurrent appends to the same id.
type ThreadStore interface {
	// GetOrCreate returns the thread with the given id, creating an empty one
	// when it does not exist yet.
	GetOrCreate(ctx context.Context, id string) (*Thread, error)
	// Get returns the thread with the given id or ErrThreadNotFound.
	Get(ctx context.Context, id string) (*Thread, error)
	// Append adds a message to the thread, creating the thread if needed.
	Append(ctx context.Context, id string, msg Message) error
}
