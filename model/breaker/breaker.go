// Package breaker wraps a model.Model with circuit breaker protection. When
// the wrapped provider fails repeatedly the circuit opens and calls fail fast
// with a service_unavailable model error instead of reaching the provider.
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/hupe1980/sherpa/logging"
	"github.com/hupe1980/sherpa/model"
)

// Options configures the circuit breaker behavior.
type Options struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before transitioning to half-open.
	Timeout time.Duration
	// Interval is the cyclic period of the closed state for clearing failure counts.
	Interval time.Duration
	Logger   logging.Logger
}

// Model is a model.Model guarded by a circuit breaker.
type Model struct {
	inner   model.Model
	breaker *gobreaker.CircuitBreaker[*model.Response]
	logger  logging.Logger
}

// New wraps inner with a circuit breaker.
func New(inner model.Model, optFns ...func(o *Options)) *Model {
	opts := Options{
		MaxFailures: 5,
		Timeout:     30 * time.Second,
		Interval:    60 * time.Second,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	info := inner.Info()

	cb := gobreaker.NewCircuitBreaker[*model.Response](gobreaker.Settings{
		Name:        "model:" + info.Provider + ":" + info.Name,
		MaxRequests: 1, // one probe in half-open state
		Interval:    opts.Interval,
		Timeout:     opts.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			opts.Logger.Warn("model.breaker.state_change", "breaker", name, "from", from.String(), "to", to.String())
		},
		// Malformed requests and exhausted quotas say nothing about provider
		// health. Quota errors must reach the caller unchanged.
		IsSuccessful: func(err error) bool {
			switch model.Classify(err) {
			case model.ErrorTypeBadPrompt, model.ErrorTypeRateLimit:
				return true
			}
			return err == nil
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
	})

	return &Model{inner: inner, breaker: cb, logger: opts.Logger}
}

// Generate implements model.Model. Calls are routed through the circuit breaker.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	start := time.Now()

	resp, err := m.breaker.Execute(func() (*model.Response, error) {
		return m.inner.Generate(ctx, req)
	})

	if sl, ok := m.logger.(*logging.StructuredLogger); ok {
		tokens := 0
		if resp != nil && resp.Usage != nil {
			tokens = resp.Usage.TotalTokens
		}
		sl.LogLLMCall(m.inner.Info().Name, tokens, time.Since(start), err == nil, err)
	}

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &model.Error{Err: err, Message: "circuit open for " + m.breaker.Name(), Type: model.ErrorTypeServiceUnavailable}
		}
		return nil, err
	}
	return resp, nil
}

// Info delegates to the wrapped model.
func (m *Model) Info() model.Info { return m.inner.Info() }

// State returns the current circuit breaker state for monitoring.
func (m *Model) State() gobreaker.State { return m.breaker.State() }

var _ model.Model = (*Model)(nil)
