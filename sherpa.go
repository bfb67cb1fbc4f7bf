// Package sherpa provides a high-level façade that wires the Startup Sherpa
// multi-agent router from configuration: model providers (with circuit
// breakers), the supervisor, the agent executor with web search, the thread
// store, metrics and the HTTP server. Most applications interact with this
// package by:
//  1. Loading a config.Config (config.Load)
//  2. Creating a Sherpa via New (optionally overriding models, search or store)
//  3. Calling Chat / Dispatch directly or serving the HTTP API via Server
//
// Every default is safe for local development: the in-memory thread store,
// no search provider when no Tavily key is configured, and the mock provider
// when asked for it.
package sherpa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/sherpa/agent"
	"github.com/hupe1980/sherpa/config"
	"github.com/hupe1980/sherpa/core"
	"github.com/hupe1980/sherpa/engine"
	"github.com/hupe1980/sherpa/logging"
	"github.com/hupe1980/sherpa/metrics"
	"github.com/hupe1980/sherpa/model"
	"github.com/hupe1980/sherpa/model/anthropic"
	"github.com/hupe1980/sherpa/model/breaker"
	"github.com/hupe1980/sherpa/model/gemini"
	"github.com/hupe1980/sherpa/model/openai"
	"github.com/hupe1980/sherpa/router"
	"github.com/hupe1980/sherpa/server"
	"github.com/hupe1980/sherpa/session"
	"github.com/hupe1980/sherpa/session/sqlite"
	"github.com/hupe1980/sherpa/tool/search"
)

// Options configures the Sherpa instance. Unset components are built from
// Config.
type Options struct {
	// Config drives every component that is not overridden. Defaults to
	// config.Defaults() with the mock provider.
	Config *config.Config

	// RoutingModel and GenerationModel override the configured providers.
	RoutingModel    model.Model
	GenerationModel model.Model

	// SearchProvider overrides the Tavily provider.
	SearchProvider search.Provider

	// Store overrides the configured thread store.
	Store core.ThreadStore

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Sherpa is the high-level façade aggregating the engine and its services.
type Sherpa struct {
	cfg     *config.Config
	engine  *engine.Engine
	metrics *metrics.Collector
	logger  logging.Logger
	closers []io.Closer
}

// New wires a Sherpa instance.
func New(ctx context.Context, optFns ...func(o *Options)) (*Sherpa, error) {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Defaults()
		cfg.Provider = config.ProviderMock
	}

	s := &Sherpa{cfg: cfg, metrics: metrics.New(), logger: opts.Logger}

	routing := opts.RoutingModel
	if routing == nil {
		m, err := NewModel(ctx, cfg, cfg.Models.Routing, componentLogger(opts.Logger, "model"))
		if err != nil {
			return nil, fmt.Errorf("routing model: %w", err)
		}
		routing = m
	}

	generation := opts.GenerationModel
	if generation == nil {
		m, err := NewModel(ctx, cfg, cfg.Models.Generation, componentLogger(opts.Logger, "model"))
		if err != nil {
			return nil, fmt.Errorf("generation model: %w", err)
		}
		generation = m
	}

	store := opts.Store
	if store == nil {
		st, err := s.newStore()
		if err != nil {
			return nil, err
		}
		store = st
	}

	registry := agent.DefaultRegistry()

	execOpts := func(o *agent.ExecutorOptions) {
		o.Registry = registry
		o.Language = cfg.ResponseLanguage
		o.Logger = componentLogger(opts.Logger, "executor")

		if provider := s.searchProvider(opts.SearchProvider); provider != nil {
			o.SearchTool = search.NewTool(provider, func(to *search.ToolOptions) {
				to.MaxResults = cfg.Search.MaxResults
				to.Logger = componentLogger(opts.Logger, "tool")
			})
		}
	}

	supervisor := router.NewSupervisor(routing, func(o *router.Options) {
		o.Registry = registry
		o.Logger = componentLogger(opts.Logger, "router")
	})

	s.engine = engine.New(supervisor, agent.NewExecutor(generation, execOpts), func(o *engine.Options) {
		o.Sessions = session.NewManager(store, func(mo *session.ManagerOptions) {
			mo.Logger = componentLogger(opts.Logger, "session")
		})
		o.Logger = componentLogger(opts.Logger, "engine")
	})

	s.metrics.Register(s.engine.Callbacks())

	engineLogger := componentLogger(opts.Logger, "engine")
	s.engine.Callbacks().RegisterCallback(
		engine.NewLoggingCallback(engine.CallbackAfterRoute, engineLogger),
		engine.NewLoggingCallback(engine.CallbackOnError, engineLogger),
	)

	opts.Logger.Info(
		"sherpa.ready",
		"provider", cfg.Provider,
		"routing_model", routing.Info().Name,
		"generation_model", generation.Info().Name,
		"store", cfg.Store.Type,
		"agents", registry.Len(),
	)

	return s, nil
}

// Chat processes one chat unit (see engine.Engine.Chat).
func (s *Sherpa) Chat(ctx context.Context, req engine.ChatRequest) (engine.ChatResponse, error) {
	return s.engine.Chat(ctx, req)
}

// Dispatch runs a named agent directly (see engine.Engine.Dispatch).
func (s *Sherpa) Dispatch(ctx context.Context, agentID core.AgentID, message, threadID string) (core.AgentResult, error) {
	return s.engine.Dispatch(ctx, agentID, message, threadID)
}

// Engine returns the underlying engine.
func (s *Sherpa) Engine() *engine.Engine { return s.engine }

// Metrics returns the metrics collector fed by the engine.
func (s *Sherpa) Metrics() *metrics.Collector { return s.metrics }

// Server builds the HTTP transport from the server section of the config.
func (s *Sherpa) Server(optFns ...func(o *server.Options)) *server.Server {
	base := func(o *server.Options) {
		o.AllowedOrigins = s.cfg.Server.AllowedOrigins
		o.RateLimitRPM = s.cfg.Server.RateLimitRPM
		o.RateLimitBurst = s.cfg.Server.RateLimitBurst
		o.RequestTimeout = s.cfg.Server.RequestTimeout
		o.Metrics = s.metrics
		o.Logger = componentLogger(s.logger, "server")
	}

	return server.New(s.engine, append([]func(o *server.Options){base}, optFns...)...)
}

// Close releases owned resources such as the SQLite store.
func (s *Sherpa) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}

	return errors.Join(errs...)
}

func (s *Sherpa) newStore() (core.ThreadStore, error) {
	if s.cfg.Store.Type != config.StoreSQLite {
		return session.NewInMemoryStore(), nil
	}

	st, err := sqlite.New(s.cfg.Store.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("thread store: %w", err)
	}

	s.closers = append(s.closers, st)

	return st, nil
}

func (s *Sherpa) searchProvider(override search.Provider) search.Provider {
	if override != nil {
		return override
	}

	if s.cfg.APIKeys.Tavily == "" {
		s.logger.Warn("sherpa.search.disabled", "reason", "no tavily api key")
		return nil
	}

	return search.NewTavilyProvider(s.cfg.APIKeys.Tavily, func(o *search.TavilyOptions) {
		o.SearchDepth = s.cfg.Search.Depth
	})
}

// NewModel builds the provider model for one profile, wrapped in a circuit
// breaker when enabled. A nil logger discards breaker state changes.
func NewModel(ctx context.Context, cfg *config.Config, profile config.Profile, logger logging.Logger) (model.Model, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	name := profile.ModelName(cfg.Provider)

	var m model.Model

	switch cfg.Provider {
	case config.ProviderGemini:
		gm, err := gemini.NewModel(ctx, func(o *gemini.Options) {
			o.Model = name
			o.Temperature = float32(profile.Temperature)
			o.APIKey = cfg.APIKeys.Google
			if profile.MaxTokens > 0 {
				o.MaxOutputTokens = int32(profile.MaxTokens)
			}
		})
		if err != nil {
			return nil, err
		}
		m = gm
	case config.ProviderOpenAI:
		m = openai.NewModel(func(o *openai.Options) {
			o.Model = name
			o.Temperature = profile.Temperature
			o.APIKey = cfg.APIKeys.OpenAI
			if profile.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(profile.MaxTokens)
			}
		})
	case config.ProviderAnthropic:
		m = anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(name)
			o.Temperature = profile.Temperature
			o.APIKey = cfg.APIKeys.Anthropic
			if profile.MaxTokens > 0 {
				o.MaxTokens = int64(profile.MaxTokens)
			}
		})
	case config.ProviderMock:
		return model.NewMockModel(name, config.ProviderMock), nil
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", core.ErrConfiguration, cfg.Provider)
	}

	if !cfg.Breaker.Enabled {
		return m, nil
	}

	return breaker.New(m, func(o *breaker.Options) {
		o.MaxFailures = cfg.Breaker.MaxFailures
		if cfg.Breaker.Timeout > 0 {
			o.Timeout = cfg.Breaker.Timeout
		}
		o.Logger = logger
	}), nil
}

// componentLogger scopes structured loggers to a component; other loggers are
// returned unchanged.
func componentLogger(l logging.Logger, component string) logging.Logger {
	if sl, ok := l.(*logging.StructuredLogger); ok {
		return sl.WithComponent(component)
	}

	return l
}

// NewLogger builds the structured logger described by cfg, writing to stderr.
func NewLogger(cfg config.LoggerConfig) (*logging.StructuredLogger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	lc := logging.DefaultLoggerConfig()
	lc.Level = level
	lc.Format = cfg.Format
	lc.Output = os.Stderr
	lc.Component = "sherpa"

	return logging.NewLogger(lc), nil
}
