package session

import (
	"context"
	"sync"

	"github.com/hupe1980/sherpa/core"
)

// InMemoryStore is a volatile ThreadStore implementation storing threads in
// a process local map. It is safe for concurrent access and best suited for
// tests or single-instance servers. Each returned thread is cloned to
// prevent external mutation of internal state.
type InMemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*core.Thread
}

// NewInMemoryStore constructs an empty in-memory thread store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{threads: make(map[string]*core.Thread)}
}

// GetOrCreate returns a clone of an existing thread or creates a new one lazily.
func (s *InMemoryStore) GetOrCreate(ctx context.Context, id string) (*core.Thread, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	th, ok := s.threads[id]
	s.mu.RUnlock()

	if ok {
		return th.Clone(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOrCreateLocked(id).Clone(), nil
}

// Get returns a clone of an existing thread or core.ErrThreadNotFound.
func (s *InMemoryStore) Get(ctx context.Context, id string) (*core.Thread, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	th, ok := s.threads[id]
	if !ok {
		return nil, core.ErrThreadNotFound
	}

	return th.Clone(), nil
}

// Append adds a message to an existing or newly created thread.
func (s *InMemoryStore) Append(ctx context.Context, id string, msg core.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.getOrCreateLocked(id).Append(msg)

	return nil
}

// Len returns the number of stored threads.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.threads)
}

// getOrCreateLocked returns the stored thread, allocating it when missing;
// caller must already hold the write lock.
func (s *InMemoryStore) getOrCreateLocked(id string) *core.Thread {
	th, ok := s.threads[id]
	if !ok {
		th = core.NewThread(id)
		s.threads[id] = th
	}

	return th
}

var _ core.ThreadStore = (*InMemoryStore)(nil)
