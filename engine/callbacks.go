package engine

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/sherpa/core"
	"github.com/hupe1980/sherpa/logging"
)

// CallbackType defines the lifecycle points of a chat turn where callbacks
// run.
//
// Callbacks are executed synchronously. An error returned from a Before*
// callback aborts the turn before anything is persisted; errors from the
// remaining callback types are logged and otherwise ignored.
type CallbackType string

const (
	// CallbackBeforeRoute is triggered before the supervisor classifies a turn.
	CallbackBeforeRoute CallbackType = "before_route"

	// CallbackAfterRoute is triggered once a routing decision exists.
	CallbackAfterRoute CallbackType = "after_route"

	// CallbackBeforeAgent is triggered before an agent executes.
	CallbackBeforeAgent CallbackType = "before_agent"

	// CallbackAfterAgent is triggered after the agent reply was persisted.
	CallbackAfterAgent CallbackType = "after_agent"

	// CallbackOnError is triggered when a turn fails.
	CallbackOnError CallbackType = "on_error"
)

// CallbackContext carries the state of the turn at the callback point.
// Fields that are not yet known at a given point are left zero.
type CallbackContext struct {
	// ThreadID identifies the conversation.
	ThreadID string

	// AgentID is the agent that runs (or ran) the turn.
	AgentID core.AgentID

	// Decision is set from CallbackAfterRoute on for routed turns.
	Decision *core.RoutingDecision

	// Result is set for CallbackAfterAgent.
	Result *core.AgentResult

	// Err is set for CallbackOnError.
	Err error

	// Duration of the phase that just finished (routing or agent execution).
	Duration time.Duration

	// CallbackType indicates which callback type triggered this execution.
	CallbackType CallbackType

	// Metadata provides extensible storage for custom callback data.
	Metadata map[string]any
}

// Callback defines the interface for turn lifecycle hooks.
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic with the provided context.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	cb := NewFunctionCallback(
//	    CallbackAfterRoute,
//	    func(ctx context.Context, cc *CallbackContext) error {
//	        log.Printf("routed to %s", cc.AgentID)
//	        return nil
//	    },
//	)
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager keeps registered callbacks per type and runs them in
// registration order. Registration and execution are safe for concurrent use.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty callback manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds callbacks to the manager. Multiple callbacks per
// type run in registration order.
func (cm *CallbackManager) RegisterCallback(callbacks ...Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for _, cb := range callbacks {
		cm.callbacks[cb.Type()] = append(cm.callbacks[cb.Type()], cb)
	}
}

// ExecuteCallbacks executes all registered callbacks for the specified type.
// Execution stops at the first error, which is returned.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	cm.mu.RLock()
	callbacks := cm.callbacks[callbackType]
	cm.mu.RUnlock()

	callbackCtx.CallbackType = callbackType

	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return err
		}
	}

	return nil
}

// LoggingCallback forwards lifecycle events to a structured logger under the
// key "engine.<callback type>".
type LoggingCallback struct {
	callbackType CallbackType
	logger       logging.Logger
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger logging.Logger) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute logs the lifecycle event. A nil logger silently succeeds.
func (c *LoggingCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	if c.logger == nil {
		return nil
	}

	if sl, ok := c.logger.(*logging.StructuredLogger); ok {
		sl = sl.WithThread(callbackCtx.ThreadID, string(callbackCtx.AgentID))
		if callbackCtx.CallbackType == CallbackAfterRoute && callbackCtx.Decision != nil {
			sl.LogRouting(string(callbackCtx.Decision.AgentID), string(callbackCtx.Decision.Source), callbackCtx.Duration)
			return nil
		}
	}

	args := []any{
		"thread_id", callbackCtx.ThreadID,
		"agent", string(callbackCtx.AgentID),
	}

	if callbackCtx.Decision != nil {
		args = append(args, "source", string(callbackCtx.Decision.Source))
	}

	if callbackCtx.Duration > 0 {
		args = append(args, "duration_ms", callbackCtx.Duration.Milliseconds())
	}

	if callbackCtx.Err != nil {
		c.logger.Error("engine."+string(c.callbackType), append(args, "error", callbackCtx.Err.Error())...)
		return nil
	}

	c.logger.Debug("engine."+string(c.callbackType), args...)

	return nil
}
