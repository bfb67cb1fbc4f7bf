package router

import (
	"context"
	"time"

	"github.com/hupe1980/sherpa/agent"
	"github.com/hupe1980/sherpa/core"
	"github.com/hupe1980/sherpa/logging"
	"github.com/hupe1980/sherpa/model"
)

// Options configures a Supervisor.
type Options struct {
	// Registry provides the agent catalogue and the label table. Defaults to agent.DefaultRegistry().
	Registry *agent.Registry
	// KeywordGroups are the ordered fallback groups. Defaults to DefaultKeywordGroups().
	KeywordGroups []KeywordGroup
	// DefaultAgent answers when no keyword group matches.
	DefaultAgent core.AgentID
	// ContextMessages is the number of trailing messages shown to the classifier.
	ContextMessages int
	Logger          logging.Logger
}

// Supervisor classifies the latest user turn of a thread.
// It never mutates the thread and is safe for concurrent use.
type Supervisor struct {
	llm             model.Model
	registry        *agent.Registry
	keywords        *KeywordRouter
	schema          *model.ResponseSchema
	contextMessages int
	logger          logging.Logger
}

// NewSupervisor creates a supervisor using llm as routing model.
func NewSupervisor(llm model.Model, optFns ...func(o *Options)) *Supervisor {
	opts := Options{
		DefaultAgent:    core.AgentCofounder,
		ContextMessages: 3,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Registry == nil {
		opts.Registry = agent.DefaultRegistry()
	}

	if opts.KeywordGroups == nil {
		opts.KeywordGroups = DefaultKeywordGroups()
	}

	return &Supervisor{
		llm:      llm,
		registry: opts.Registry,
		keywords: NewKeywordRouter(opts.KeywordGroups, opts.DefaultAgent),
		schema: &model.ResponseSchema{
			Name:        "routing_decision",
			Description: "Structured output for supervisor routing",
			Schema:      routingSchema(opts.Registry),
		},
		contextMessages: opts.ContextMessages,
		logger:          opts.Logger,
	}
}

// Route decides which agent answers the thread. It returns FINISH with
// source "none" when the thread is empty or already ends with an agent
// message. Otherwise a registered agent is always returned.
func (s *Supervisor) Route(ctx context.Context, thread *core.Thread) core.RoutingDecision {
	last, ok := thread.LastMessage()
	if !ok || last.IsAgent() {
		return core.RoutingDecision{AgentID: core.Finish, Source: core.RoutingSourceNone}
	}

	user, ok := thread.LastUserMessage()
	if !ok {
		return core.RoutingDecision{AgentID: core.Finish, Source: core.RoutingSourceNone}
	}

	start := time.Now()

	id, err := s.classify(ctx, user.Content, thread)
	if err == nil {
		s.logger.Info(
			"router.decision",
			"thread_id", thread.ID,
			"routed_to", string(id),
			"source", string(core.RoutingSourceClassifier),
			"duration_ms", time.Since(start).Milliseconds(),
		)

		return core.RoutingDecision{AgentID: id, Source: core.RoutingSourceClassifier}
	}

	s.logger.Warn(
		"router.classify.failed",
		"thread_id", thread.ID,
		"error", err.Error(),
	)

	id = s.Fallback(user.Content)

	s.logger.Info(
		"router.decision",
		"thread_id", thread.ID,
		"routed_to", string(id),
		"source", string(core.RoutingSourceFallback),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return core.RoutingDecision{AgentID: id, Source: core.RoutingSourceFallback}
}

// Fallback applies the keyword groups to message. Agents missing from the
// registry resolve to the default agent.
func (s *Supervisor) Fallback(message string) core.AgentID {
	id := s.keywords.Route(message)
	if !s.registry.Has(id) {
		return s.keywords.defaultID
	}

	return id
}

type routingDecision struct {
	Next string `json:"next"`
}

// classify runs the structured classification call. Any outcome other than a
// registered agent label is reported as an error so the caller falls back.
func (s *Supervisor) classify(ctx context.Context, userMessage string, thread *core.Thread) (core.AgentID, error) {
	prompt, err := s.buildPrompt(userMessage, thread)
	if err != nil {
		return "", err
	}

	resp, err := s.llm.Generate(ctx, model.Request{
		Messages: []core.Message{core.NewUserMessage(prompt)},
		Schema:   s.schema,
	})
	if err != nil {
		return "", err
	}

	var decision routingDecision
	if err := resp.Decode(&decision); err != nil {
		return "", err
	}

	if decision.Next == string(core.Finish) {
		return "", model.NewError(model.ErrorTypeBadPrompt, "classifier answered FINISH for a fresh user message")
	}

	id, ok := s.registry.Lookup(decision.Next)
	if !ok {
		return "", model.NewError(model.ErrorTypeBadPrompt, "classifier answered unknown label "+decision.Next)
	}

	return id, nil
}
