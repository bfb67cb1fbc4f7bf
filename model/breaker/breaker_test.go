package breaker

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sherpa/core"
	"github.com/hupe1980/sherpa/logging"
	"github.com/hupe1980/sherpa/model"
)

func request() model.Request {
	return model.Request{Messages: []core.Message{core.NewUserMessage("hi")}}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := model.NewMockModel("m", "mock")
	inner.EnqueueError(errors.New("503 unavailable"))
	inner.EnqueueError(errors.New("503 unavailable"))

	m := New(inner, func(o *Options) {
		o.MaxFailures = 2
		o.Timeout = time.Minute
	})

	for i := 0; i < 2; i++ {
		_, err := m.Generate(context.Background(), request())
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, m.State())

	_, err := m.Generate(context.Background(), request())
	require.Error(t, err)
	assert.True(t, model.IsType(err, model.ErrorTypeServiceUnavailable))
	assert.Equal(t, 2, inner.Calls(), "open circuit must not reach the provider")
}

func TestBreaker_BadPromptDoesNotTrip(t *testing.T) {
	inner := model.NewMockModel("m", "mock")
	inner.EnqueueError(model.NewError(model.ErrorTypeBadPrompt, "bad"))
	inner.EnqueueError(model.NewError(model.ErrorTypeBadPrompt, "bad"))

	m := New(inner, func(o *Options) { o.MaxFailures = 1 })

	_, _ = m.Generate(context.Background(), request())
	_, _ = m.Generate(context.Background(), request())

	assert.Equal(t, gobreaker.StateClosed, m.State())

	resp, err := m.Generate(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hi", resp.Content)
}

func TestBreaker_Info(t *testing.T) {
	inner := model.NewMockModel("m", "mock")
	assert.Equal(t, inner.Info(), New(inner).Info())
}

func TestBreaker_LogsModelCalls(t *testing.T) {
	var buf bytes.Buffer

	cfg := logging.DefaultLoggerConfig()
	cfg.Output = &buf

	inner := model.NewMockModel("gemini-2.5-flash", "mock")
	inner.Enqueue(model.Response{Content: "ok", Usage: &model.TokenUsage{TotalTokens: 42}})
	inner.EnqueueError(errors.New("boom"))

	m := New(inner, func(o *Options) { o.Logger = logging.NewLogger(cfg) })

	_, err := m.Generate(context.Background(), request())
	require.NoError(t, err)
	_, err = m.Generate(context.Background(), request())
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"model.call.success"`)
	assert.Contains(t, out, `"token_count":42`)
	assert.Contains(t, out, `"msg":"model.call.failed"`)
	assert.Contains(t, out, `"model":"gemini-2.5-flash"`)
}

func TestBreaker_QuotaErrorsDoNotTrip(t *testing.T) {
	inner := model.NewMockModel("m", "mock")
	for i := 0; i < 3; i++ {
		inner.EnqueueError(errors.New("googleapi: Error 429: Resource has been exhausted (e.g. check quota)"))
	}

	m := New(inner, func(o *Options) { o.MaxFailures = 2 })

	for i := 0; i < 3; i++ {
		_, err := m.Generate(context.Background(), request())
		require.Error(t, err)
		assert.True(t, model.IsQuota(err), "quota errors must pass through unchanged")
	}

	assert.Equal(t, gobreaker.StateClosed, m.State())
	assert.Equal(t, 3, inner.Calls())
}
