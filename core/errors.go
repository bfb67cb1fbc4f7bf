package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAgent is returned when an agent id is not present in the registry.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrThreadNotFound is returned by ThreadStore.Get for an unknown thread id.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrConfiguration marks invalid static configuration (registry, profiles, keys).
	ErrConfiguration = errors.New("configuration error")
)

// UnknownAgentError names the agent id that failed lookup.
type UnknownAgentError struct {
	AgentID AgentID
}

// Error implements the error interface.
func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown agent: %q", string(e.AgentID))
}

// Is makes errors.Is(err, ErrUnknownAgent) succeed.
func (e *UnknownAgentError) Is(target error) bool {
	return target == ErrUnknownAgent
}

// NewUnknownAgentError creates an UnknownAgentError for id.
func NewUnknownAgentError(id AgentID) error {
	return &UnknownAgentError{AgentID: id}
}
