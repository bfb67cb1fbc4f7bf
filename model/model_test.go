package model

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sherpa/core"
)

func TestMockModel_OrderOfResults(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.AddResponse("hello", "canned")
	m.Enqueue(Response{Content: "queued"})
	m.EnqueueError(errors.New("boom"))

	req := Request{Messages: []core.Message{core.NewUserMessage("hello")}}

	resp, err := m.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "queued", resp.Content)

	_, err = m.Generate(context.Background(), req)
	require.EqualError(t, err, "boom")

	resp, err = m.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "canned", resp.Content)

	resp, err = m.Generate(context.Background(), Request{Messages: []core.Message{core.NewUserMessage("other")}})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: other", resp.Content)

	assert.Equal(t, 4, m.Calls())
	assert.Len(t, m.Requests(), 4)
}

func TestMockModel_CancelledContext(t *testing.T) {
	m := NewMockModel("mock", "mock")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Generate(ctx, Request{Messages: []core.Message{core.NewUserMessage("x")}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.Calls())
}

func TestResponse_Decode(t *testing.T) {
	var out struct {
		Next string `json:"next"`
	}

	r := &Response{Content: `{"next":"GrantHunter"}`}
	require.NoError(t, r.Decode(&out))
	assert.Equal(t, "GrantHunter", out.Next)

	err := (&Response{Content: "not json"}).Decode(&out)
	require.Error(t, err)
	assert.True(t, IsType(err, ErrorTypeBadPrompt))

	err = (&Response{}).Decode(&out)
	assert.True(t, IsType(err, ErrorTypeEmptyResponse))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"status 429", errors.New("googleapi: Error 429: Resource has been exhausted"), ErrorTypeRateLimit},
		{"quota lowercase", errors.New("you exceeded your current quota"), ErrorTypeRateLimit},
		{"quota exceeded", errors.New("Quota exceeded for metric"), ErrorTypeRateLimit},
		{"auth", errors.New("401 Unauthorized"), ErrorTypeAuth},
		{"transient", errors.New("unexpected EOF"), ErrorTypeTransient},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ErrorTypeTransient},
		{"typed", NewError(ErrorTypeServiceUnavailable, "open"), ErrorTypeServiceUnavailable},
		{"wrapped typed", fmt.Errorf("outer: %w", NewError(ErrorTypeRateLimit, "slow down")), ErrorTypeRateLimit},
		{"typed unknown falls through", &Error{Err: errors.New("HTTP 429")}, ErrorTypeRateLimit},
		{"other", errors.New("something odd"), ErrorTypeUnknown},
		{"nil", nil, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}

	assert.True(t, IsQuota(errors.New("429 Too Many Requests")))
	assert.False(t, IsQuota(errors.New("bad gateway 502")))
}

func TestWrapError(t *testing.T) {
	cause := errors.New("HTTP 429 Too Many Requests")
	err := WrapError(cause, "gemini api error")

	assert.Equal(t, ErrorTypeRateLimit, err.Type)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "gemini api error")
}
