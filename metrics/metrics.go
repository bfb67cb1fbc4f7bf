// Package metrics exposes Prometheus metrics for Sherpa turns. The Collector
// owns a private registry, observes the engine through lifecycle callbacks
// and serves the exposition format over HTTP.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/sherpa/core"
	"github.com/hupe1980/sherpa/engine"
)

// Collector records routing, agent and HTTP metrics.
type Collector struct {
	registry *prometheus.Registry

	routingTotal    *prometheus.CounterVec
	routingDuration prometheus.Histogram
	agentRunTotal   *prometheus.CounterVec
	agentDuration   *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates a collector with its own registry, including the Go runtime
// and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		routingTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sherpa_routing_decisions_total",
				Help: "Routing decisions by target agent and decision source.",
			},
			[]string{"agent", "source"},
		),
		routingDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sherpa_routing_duration_seconds",
				Help:    "Duration of supervisor routing in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
		agentRunTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sherpa_agent_runs_total",
				Help: "Completed agent turns by agent.",
			},
			[]string{"agent"},
		),
		agentDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sherpa_agent_duration_seconds",
				Help:    "Agent execution duration in seconds by agent.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"agent"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sherpa_turn_errors_total",
				Help: "Failed turns by error kind.",
			},
			[]string{"kind"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sherpa_http_requests_total",
				Help: "HTTP requests by route and status code.",
			},
			[]string{"route", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sherpa_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.routingTotal,
		c.routingDuration,
		c.agentRunTotal,
		c.agentDuration,
		c.errorsTotal,
		c.httpRequests,
		c.httpDuration,
	)

	return c
}

// Registry returns the private registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Register attaches the collector to an engine's lifecycle callbacks.
func (c *Collector) Register(cm *engine.CallbackManager) {
	cm.RegisterCallback(c.Callbacks()...)
}

// Callbacks returns the engine callbacks feeding this collector.
func (c *Collector) Callbacks() []engine.Callback {
	return []engine.Callback{
		engine.NewFunctionCallback(engine.CallbackAfterRoute, func(_ context.Context, cc *engine.CallbackContext) error {
			source := core.RoutingSourceNone
			if cc.Decision != nil {
				source = cc.Decision.Source
			}

			c.routingTotal.WithLabelValues(string(cc.AgentID), string(source)).Inc()
			c.routingDuration.Observe(cc.Duration.Seconds())

			return nil
		}),
		engine.NewFunctionCallback(engine.CallbackAfterAgent, func(_ context.Context, cc *engine.CallbackContext) error {
			c.agentRunTotal.WithLabelValues(string(cc.AgentID)).Inc()
			c.agentDuration.WithLabelValues(string(cc.AgentID)).Observe(cc.Duration.Seconds())

			return nil
		}),
		engine.NewFunctionCallback(engine.CallbackOnError, func(_ context.Context, cc *engine.CallbackContext) error {
			c.errorsTotal.WithLabelValues(errorKind(cc.Err)).Inc()
			return nil
		}),
	}
}

// ObserveHTTP records one served HTTP request.
func (c *Collector) ObserveHTTP(route string, code int, d time.Duration) {
	c.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func errorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, core.ErrUnknownAgent):
		return "unknown_agent"
	case errors.Is(err, core.ErrConfiguration):
		return "configuration"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
