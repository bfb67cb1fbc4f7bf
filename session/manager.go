package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/hupe1980/sherpa/core"
	"github.com/hupe1980/sherpa/logging"
)

const (
	// ThreadIDPrefix prefixes every generated thread id.
	ThreadIDPrefix = "thread_"

	threadIDAlphabet = "0123456789abcdef"
	threadIDLength   = 16
)

// ErrEmptyThreadID is returned when an operation needs a thread id but got none.
var ErrEmptyThreadID = errors.New("thread id must not be empty")

// NewThreadID returns a fresh thread id: "thread_" followed by 16 random
// lowercase hex characters.
func NewThreadID() string {
	token, err := gonanoid.Generate(threadIDAlphabet, threadIDLength)
	if err != nil {
		// Only fails when the system random source is broken.
		panic(fmt.Sprintf("generate thread id: %v", err))
	}

	return ThreadIDPrefix + token
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Logger logging.Logger
}

// Manager owns the thread lifecycle on top of a pluggable core.ThreadStore.
type Manager struct {
	store  core.ThreadStore
	logger logging.Logger
}

// NewManager creates a manager. A nil store selects a new InMemoryStore.
func NewManager(store core.ThreadStore, optFns ...func(o *ManagerOptions)) *Manager {
	opts := ManagerOptions{Logger: logging.NoOpLogger{}}

	for _, fn := range optFns {
		fn(&opts)
	}

	if store == nil {
		store = NewInMemoryStore()
	}

	return &Manager{store: store, logger: opts.Logger}
}

// Store returns the underlying store.
func (m *Manager) Store() core.ThreadStore { return m.store }

// NewThreadID returns a fresh thread id.
func (m *Manager) NewThreadID() string { return NewThreadID() }

// ResolveThreadID returns id when set, otherwise a fresh id.
func (m *Manager) ResolveThreadID(id string) string {
	if strings.TrimSpace(id) == "" {
		return m.NewThreadID()
	}

	return id
}

// GetOrCreate returns the thread, creating it on first use.
func (m *Manager) GetOrCreate(ctx context.Context, threadID string) (*core.Thread, error) {
	if threadID == "" {
		return nil, ErrEmptyThreadID
	}

	th, err := m.store.GetOrCreate(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("get or create thread %s: %w", threadID, err)
	}

	return th, nil
}

// Get returns an existing thread or core.ErrThreadNotFound.
func (m *Manager) Get(ctx context.Context, threadID string) (*core.Thread, error) {
	th, err := m.store.Get(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("get thread %s: %w", threadID, err)
	}

	return th, nil
}

// Append persists msg at the end of the thread.
func (m *Manager) Append(ctx context.Context, threadID string, msg core.Message) error {
	if threadID == "" {
		return ErrEmptyThreadID
	}

	if err := m.store.Append(ctx, threadID, msg); err != nil {
		m.logger.Error("session.append.failed", "thread_id", threadID, "role", string(msg.Role), "error", err.Error())
		return fmt.Errorf("append to thread %s: %w", threadID, err)
	}

	m.logger.Debug("session.append", "thread_id", threadID, "role", string(msg.Role), "agent", string(msg.AgentID))

	return nil
}

// ApplyResult appends the agent message produced by an executor.
func (m *Manager) ApplyResult(ctx context.Context, threadID string, result core.AgentResult) error {
	return m.Append(ctx, threadID, result.Message())
}
