package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/sherpa/agent"
	"github.com/hupe1980/sherpa/core"
	"github.com/hupe1980/sherpa/logging"
	"github.com/hupe1980/sherpa/router"
	"github.com/hupe1980/sherpa/session"
)

// SupervisorAgent is the agent override value that requests routing.
const SupervisorAgent = "supervisor"

// persistTimeout bounds the write of an agent reply once the request context
// is gone.
const persistTimeout = 5 * time.Second

// ErrEmptyMessage is returned when a chat request carries no message text.
var ErrEmptyMessage = errors.New("message must not be empty")

// ChatRequest is one inbound chat unit.
type ChatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
	// Agent optionally names the agent to answer. Empty or "supervisor"
	// routes through the supervisor.
	Agent string `json:"agent,omitempty"`
}

// ChatResponse is one outbound chat unit.
type ChatResponse struct {
	Response string       `json:"response"`
	Agent    core.AgentID `json:"agent"`
	ThreadID string       `json:"thread_id"`
	// Source records how the agent was chosen. Not part of the wire format.
	Source core.RoutingSource `json:"-"`
}

// Router decides which agent answers a thread.
type Router interface {
	Route(ctx context.Context, thread *core.Thread) core.RoutingDecision
}

// Executor runs a single agent turn.
type Executor interface {
	Execute(ctx context.Context, agentID core.AgentID, thread *core.Thread) (core.AgentResult, error)
	Registry() *agent.Registry
}

// Options configures an Engine.
type Options struct {
	// Sessions manages thread storage. Defaults to an in-memory manager.
	Sessions *session.Manager

	// Callbacks receives lifecycle events. Defaults to an empty manager.
	Callbacks *CallbackManager

	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Engine ties supervisor, executor and session storage into a single
// chat turn. It is safe for concurrent use; turns on different threads run
// fully in parallel and turns on the same thread are not serialized.
type Engine struct {
	router    Router
	executor  Executor
	sessions  *session.Manager
	callbacks *CallbackManager
	logger    logging.Logger
}

// New creates an engine from a router and an executor.
func New(r Router, exec Executor, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Sessions == nil {
		opts.Sessions = session.NewManager(nil, func(o *session.ManagerOptions) { o.Logger = opts.Logger })
	}

	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}

	return &Engine{
		router:    r,
		executor:  exec,
		sessions:  opts.Sessions,
		callbacks: opts.Callbacks,
		logger:    opts.Logger,
	}
}

// Sessions returns the session manager used by the engine.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Callbacks returns the callback manager so callers can register hooks.
func (e *Engine) Callbacks() *CallbackManager { return e.callbacks }

// Registry returns the agent registry the executor serves.
func (e *Engine) Registry() *agent.Registry { return e.executor.Registry() }

// Chat processes one chat unit. A request naming an agent is dispatched
// directly; otherwise the supervisor picks the agent.
func (e *Engine) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return ChatResponse{}, ErrEmptyMessage
	}

	threadID := e.sessions.ResolveThreadID(req.ThreadID)

	if name := strings.TrimSpace(req.Agent); name != "" && name != SupervisorAgent {
		result, err := e.Dispatch(ctx, core.AgentID(name), req.Message, threadID)
		if err != nil {
			return ChatResponse{}, err
		}

		return ChatResponse{
			Response: result.Content,
			Agent:    result.AgentID,
			ThreadID: threadID,
			Source:   core.RoutingSourceNone,
		}, nil
	}

	return e.routeAndRun(ctx, req.Message, threadID)
}

// Dispatch runs agentID on the thread without consulting the supervisor.
// The agent id is validated before the thread is touched, so an unknown
// agent leaves the thread unchanged. On success exactly two messages are
// appended: the user message and the agent reply.
func (e *Engine) Dispatch(ctx context.Context, agentID core.AgentID, userMessage, threadID string) (core.AgentResult, error) {
	if !e.Registry().Has(agentID) {
		err := core.NewUnknownAgentError(agentID)
		e.fail(ctx, threadID, agentID, err)

		return core.AgentResult{}, err
	}

	if threadID == "" {
		threadID = e.sessions.NewThreadID()
	}

	thread, err := e.appendUser(ctx, threadID, userMessage)
	if err != nil {
		e.fail(ctx, threadID, agentID, err)
		return core.AgentResult{}, err
	}

	e.logger.Info("engine.dispatch", "thread_id", threadID, "agent", string(agentID))

	return e.run(ctx, thread, agentID, nil)
}

func (e *Engine) routeAndRun(ctx context.Context, userMessage, threadID string) (ChatResponse, error) {
	cbCtx := &CallbackContext{ThreadID: threadID}
	if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeRoute, cbCtx); err != nil {
		e.fail(ctx, threadID, "", err)
		return ChatResponse{}, fmt.Errorf("before route: %w", err)
	}

	thread, err := e.appendUser(ctx, threadID, userMessage)
	if err != nil {
		e.fail(ctx, threadID, "", err)
		return ChatResponse{}, err
	}

	start := time.Now()
	decision := e.router.Route(ctx, thread)

	e.after(ctx, CallbackAfterRoute, &CallbackContext{
		ThreadID: threadID,
		AgentID:  decision.AgentID,
		Decision: &decision,
		Duration: time.Since(start),
	})

	// A fresh user message never yields FINISH from the supervisor, but a
	// custom Router may; there is nothing to run in that case.
	if decision.IsFinish() {
		return ChatResponse{Agent: core.Finish, ThreadID: threadID, Source: decision.Source}, nil
	}

	result, err := e.run(ctx, thread, decision.AgentID, &decision)
	if err != nil {
		return ChatResponse{}, err
	}

	return ChatResponse{
		Response: result.Content,
		Agent:    result.AgentID,
		ThreadID: threadID,
		Source:   decision.Source,
	}, nil
}

// appendUser persists the user message and returns the updated thread.
func (e *Engine) appendUser(ctx context.Context, threadID, userMessage string) (*core.Thread, error) {
	thread, err := e.sessions.GetOrCreate(ctx, threadID)
	if err != nil {
		return nil, err
	}

	msg := core.NewUserMessage(userMessage)
	if err := e.sessions.Append(ctx, threadID, msg); err != nil {
		return nil, err
	}

	thread.Append(msg)

	return thread, nil
}

// run executes the agent and persists its reply.
func (e *Engine) run(ctx context.Context, thread *core.Thread, agentID core.AgentID, decision *core.RoutingDecision) (core.AgentResult, error) {
	cbCtx := &CallbackContext{ThreadID: thread.ID, AgentID: agentID, Decision: decision}
	if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeAgent, cbCtx); err != nil {
		e.fail(ctx, thread.ID, agentID, err)
		return core.AgentResult{}, fmt.Errorf("before agent: %w", err)
	}

	start := time.Now()

	result, err := e.executor.Execute(ctx, agentID, thread)
	if err != nil {
		e.fail(ctx, thread.ID, agentID, err)
		return core.AgentResult{}, err
	}

	// The reply is persisted even when the request expired during generation,
	// so the thread never ends on an unanswered user turn.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := e.sessions.ApplyResult(persistCtx, thread.ID, result); err != nil {
		e.fail(ctx, thread.ID, agentID, err)
		return core.AgentResult{}, err
	}

	e.after(ctx, CallbackAfterAgent, &CallbackContext{
		ThreadID: thread.ID,
		AgentID:  agentID,
		Decision: decision,
		Result:   &result,
		Duration: time.Since(start),
	})

	return result, nil
}

func (e *Engine) after(ctx context.Context, t CallbackType, cbCtx *CallbackContext) {
	if err := e.callbacks.ExecuteCallbacks(ctx, t, cbCtx); err != nil {
		e.logger.Warn("engine.callback.failed", "callback", string(t), "thread_id", cbCtx.ThreadID, "error", err.Error())
	}
}

func (e *Engine) fail(ctx context.Context, threadID string, agentID core.AgentID, err error) {
	e.logger.Error("engine.turn.failed", "thread_id", threadID, "agent", string(agentID), "error", err.Error())
	e.after(ctx, CallbackOnError, &CallbackContext{ThreadID: threadID, AgentID: agentID, Err: err})
}

var (
	_ Router   = (*router.Supervisor)(nil)
	_ Executor = (*agent.Executor)(nil)
)
