package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sherpa/core"
	"github.com/hupe1980/sherpa/engine"
)

func TestCollector_Callbacks(t *testing.T) {
	ctx := context.Background()
	c := New()

	cm := engine.NewCallbackManager()
	c.Register(cm)

	decision := core.RoutingDecision{AgentID: core.AgentGrantHunter, Source: core.RoutingSourceFallback}

	require.NoError(t, cm.ExecuteCallbacks(ctx, engine.CallbackAfterRoute, &engine.CallbackContext{
		AgentID:  core.AgentGrantHunter,
		Decision: &decision,
		Duration: 20 * time.Millisecond,
	}))
	require.NoError(t, cm.ExecuteCallbacks(ctx, engine.CallbackAfterAgent, &engine.CallbackContext{
		AgentID:  core.AgentGrantHunter,
		Duration: time.Second,
	}))
	require.NoError(t, cm.ExecuteCallbacks(ctx, engine.CallbackOnError, &engine.CallbackContext{
		Err: core.NewUnknownAgentError("astrologer"),
	}))
	require.NoError(t, cm.ExecuteCallbacks(ctx, engine.CallbackOnError, &engine.CallbackContext{
		Err: errors.New("disk full"),
	}))

	body := scrape(t, c)
	assert.Contains(t, body, `sherpa_routing_decisions_total{agent="grant_hunter",source="fallback"} 1`)
	assert.Contains(t, body, `sherpa_agent_runs_total{agent="grant_hunter"} 1`)
	assert.Contains(t, body, `sherpa_agent_duration_seconds_count{agent="grant_hunter"} 1`)
	assert.Contains(t, body, `sherpa_turn_errors_total{kind="unknown_agent"} 1`)
	assert.Contains(t, body, `sherpa_turn_errors_total{kind="internal"} 1`)
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.ObserveHTTP("/chat", http.StatusOK, 15*time.Millisecond)

	body := scrape(t, c)
	assert.Contains(t, body, `sherpa_http_requests_total{code="200",route="/chat"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "none", errorKind(nil))
	assert.Equal(t, "canceled", errorKind(context.Canceled))
	assert.Equal(t, "configuration", errorKind(core.ErrConfiguration))
}

func scrape(t *testing.T, c *Collector) string {
	t.Helper()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	return rec.Body.String()
}
