package agent

import (
	"context"
	"time"

	"github.com/hupe1980/sherpa/core"
	"github.com/hupe1980/sherpa/logging"
	"github.com/hupe1980/sherpa/model"
	"github.com/hupe1980/sherpa/tool"
)

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// Registry holds the personas. Defaults to DefaultRegistry().
	Registry *Registry
	// SearchTool is bound for personas with UsesSearchTool. Nil disables search.
	SearchTool tool.Tool
	// Language is rendered into persona prompts.
	Language string
	// MaxModelCalls caps the model calls of one turn.
	MaxModelCalls int
	Logger        logging.Logger
}

// Executor runs a single persona turn against the generation model.
// It is stateless between calls and safe for concurrent use.
type Executor struct {
	llm      model.Model
	registry *Registry
	tools    map[string]tool.Tool
	language string
	maxCalls int
	logger   logging.Logger
}

// NewExecutor creates an executor for the given generation model.
func NewExecutor(llm model.Model, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		Language:      DefaultLanguage,
		MaxModelCalls: 2,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}

	tools := make(map[string]tool.Tool)
	if opts.SearchTool != nil {
		tools[opts.SearchTool.Name()] = opts.SearchTool
	}

	return &Executor{
		llm:      llm,
		registry: opts.Registry,
		tools:    tools,
		language: opts.Language,
		maxCalls: opts.MaxModelCalls,
		logger:   opts.Logger,
	}
}

// Registry returns the persona registry used by the executor.
func (e *Executor) Registry() *Registry { return e.registry }

// Execute produces the reply of agentID to the thread. The thread is read
// only. Generation failures are converted into reply content, so the only
// errors returned are configuration errors.
func (e *Executor) Execute(ctx context.Context, agentID core.AgentID, thread *core.Thread) (core.AgentResult, error) {
	desc, err := e.registry.Get(agentID)
	if err != nil {
		return core.AgentResult{}, &ConfigurationError{AgentID: agentID, Err: err}
	}

	instructions, err := desc.Instruction(PromptData{Language: e.language})
	if err != nil {
		return core.AgentResult{}, &ConfigurationError{AgentID: agentID, Err: err}
	}

	start := time.Now()

	e.logger.Info(
		"agent.execute.start",
		"agent", string(agentID),
		"thread_id", thread.ID,
		"history", thread.Len(),
		"post_process", desc.PostProcess.String(),
	)

	tr := &turn{
		executor:     e,
		desc:         desc,
		instructions: instructions,
		history:      replayable(thread.Messages),
		limiter:      core.NewModelLimiter(e.maxCalls),
	}

	var content string

	switch desc.PostProcess {
	case PostProcessCanvas:
		content, err = tr.canvas(ctx)
	default:
		content, err = tr.generate(ctx)
	}

	if err != nil {
		e.logger.Error(
			"agent.execute.error",
			"agent", string(agentID),
			"thread_id", thread.ID,
			"error_type", model.Classify(err).String(),
			"error", err.Error(),
		)

		content = ErrorContent(err)
	}

	// Legal replies carry the disclaimer even when they only report an error.
	if desc.PostProcess == PostProcessDisclaimer {
		content = ApplyDisclaimer(content)
	}

	e.logger.Info(
		"agent.execute.complete",
		"agent", string(agentID),
		"thread_id", thread.ID,
		"model_calls", tr.limiter.Count(),
		"duration_ms", time.Since(start).Milliseconds(),
		"failed", err != nil,
	)

	return core.AgentResult{AgentID: agentID, Content: content}, nil
}

// replayable returns the persisted user and agent messages of a history.
func replayable(msgs []core.Message) []core.Message {
	out := make([]core.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.IsUser() || m.IsAgent() {
			m.ToolCalls = nil
			out = append(out, m)
		}
	}

	return out
}

// turn carries the state of one Execute call.
type turn struct {
	executor     *Executor
	desc         Descriptor
	instructions string
	history      []core.Message
	limiter      *core.ModelLimiter
}

// call issues one model request within the turn budget.
func (t *turn) call(ctx context.Context, req model.Request) (*model.Response, error) {
	if err := t.limiter.Acquire(); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := t.executor.llm.Generate(ctx, req)

	tokens := 0
	if resp != nil && resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}

	t.executor.logger.Debug(
		"agent.model.call",
		"agent", string(t.desc.ID),
		"model", t.executor.llm.Info().Name,
		"tools", len(req.Tools),
		"structured", req.Schema != nil,
		"token_count", tokens,
		"duration_ms", time.Since(start).Milliseconds(),
		"success", err == nil,
	)

	if err != nil {
		return nil, err
	}

	if resp == nil {
		return nil, model.NewError(model.ErrorTypeEmptyResponse, "model returned no response")
	}

	return resp, nil
}

// generate produces free text, with one optional search round-trip.
func (t *turn) generate(ctx context.Context) (string, error) {
	req := model.Request{
		Instructions: t.instructions,
		Messages:     t.history,
	}

	bindSearch := t.desc.UsesSearchTool && len(t.executor.tools) > 0
	if bindSearch {
		req.Tools = t.executor.toolDefinitions()
	}

	resp, err := t.call(ctx, req)
	if err != nil {
		return "", err
	}

	if !bindSearch || !resp.HasToolCalls() {
		return resp.Content, nil
	}

	calls := normalizeToolCalls(resp.ToolCalls)

	request := core.NewAgentMessage(t.desc.ID, resp.Content)
	request.ToolCalls = calls

	msgs := make([]core.Message, 0, len(t.history)+1+len(calls))
	msgs = append(msgs, t.history...)
	msgs = append(msgs, request)
	msgs = append(msgs, t.executor.executeToolCalls(ctx, t.desc.ID, calls)...)

	// The follow-up call carries no tools, so a second round-trip is impossible.
	final, err := t.call(ctx, model.Request{
		Instructions: t.instructions,
		Messages:     msgs,
	})
	if err != nil {
		return "", err
	}

	return final.Content, nil
}

// canvas produces a structured canvas payload, or a clarifying reply when the
// requested canvas type cannot be detected.
func (t *turn) canvas(ctx context.Context) (string, error) {
	prior := t.history
	userMessage := ""

	if n := len(prior); n > 0 && prior[n-1].IsUser() {
		userMessage = prior[n-1].Content
		prior = prior[:n-1]
	}

	msgs := make([]core.Message, 0, len(prior)+1)
	msgs = append(msgs, prior...)

	kind, ok := DetectCanvas(userMessage)
	if !ok {
		msgs = append(msgs, core.NewUserMessage(userMessage+CanvasClarification))

		resp, err := t.call(ctx, model.Request{Instructions: t.instructions, Messages: msgs})
		if err != nil {
			return "", err
		}

		return resp.Content, nil
	}

	spec := canvasSpecs[kind]
	msgs = append(msgs, core.NewUserMessage(spec.instruction(userMessage)))

	resp, err := t.call(ctx, model.Request{
		Instructions: t.instructions,
		Messages:     msgs,
		Schema:       spec.responseSchema(),
	})
	if err != nil {
		return "", err
	}

	return spec.decode(resp.Content)
}

func (e *Executor) toolDefinitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(e.tools))
	for _, t := range e.tools {
		defs = append(defs, tool.Definition(t))
	}

	return defs
}
