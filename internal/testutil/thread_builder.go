package testutil

import (
	"github.com/hupe1980/sherpa/core"
)

// ThreadBuilder helps construct threads with fluent chaining for tests.
// Example:
//
//	th := NewThreadBuilder("thread_1").User("hi").Agent(core.AgentCofounder, "hello").Build()
type ThreadBuilder struct {
	id       string
	messages []core.Message
}

// NewThreadBuilder creates a new builder for a thread with the given id.
func NewThreadBuilder(id string) *ThreadBuilder {
	return &ThreadBuilder{id: id}
}

// User appends a user message (chainable).
func (b *ThreadBuilder) User(content string) *ThreadBuilder {
	b.messages = append(b.messages, core.NewUserMessage(content))
	return b
}

// Agent appends an agent message (chainable).
func (b *ThreadBuilder) Agent(id core.AgentID, content string) *ThreadBuilder {
	b.messages = append(b.messages, core.NewAgentMessage(id, content))
	return b
}

// Messages appends arbitrary messages (chainable).
func (b *ThreadBuilder) Messages(msgs ...core.Message) *ThreadBuilder {
	b.messages = append(b.messages, msgs...)
	return b
}

// Build returns a *core.Thread with the messages appended in order, so
// LastAgent reflects the final agent message.
func (b *ThreadBuilder) Build() *core.Thread {
	th := core.NewThread(b.id)
	for _, m := range b.messages {
		th.Append(m)
	}
	return th
}
