package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThread_AppendTracksLastAgent(t *testing.T) {
	th := NewThread("t1")
	assert.Empty(t, th.LastAgent)

	th.Append(NewUserMessage("hello"))
	assert.Empty(t, th.LastAgent)

	th.Append(NewAgentMessage(AgentCofounder, "hi there"))
	assert.Equal(t, AgentCofounder, th.LastAgent)

	th.Append(NewUserMessage("another question"))
	assert.Equal(t, AgentCofounder, th.LastAgent, "user turns keep the previous agent")

	th.Append(NewAgentMessage(AgentLegalAdvisor, "contract"))
	assert.Equal(t, AgentLegalAdvisor, th.LastAgent)
	assert.Equal(t, 4, th.Len())
}

func TestThread_LastMessages(t *testing.T) {
	th := NewThread("t2")
	_, ok := th.LastMessage()
	assert.False(t, ok)
	_, ok = th.LastUserMessage()
	assert.False(t, ok)

	th.Append(NewUserMessage("first"))
	th.Append(NewAgentMessage(AgentMVPBuilder, "code"))

	last, ok := th.LastMessage()
	require.True(t, ok)
	assert.True(t, last.IsAgent())

	user, ok := th.LastUserMessage()
	require.True(t, ok)
	assert.Equal(t, "first", user.Content)
}

func TestThread_Recent(t *testing.T) {
	th := NewThread("t3")
	for _, c := range []string{"a", "b", "c", "d"} {
		th.Append(NewUserMessage(c))
	}

	recent := th.Recent(3)
	require.Len(t, recent, 3)
	assert.Equal(t, "b", recent[0].Content)
	assert.Equal(t, "d", recent[2].Content)

	assert.Len(t, th.Recent(10), 4)
	assert.Nil(t, th.Recent(0))

	recent[0].Content = "changed"
	assert.Equal(t, "b", th.Messages[1].Content, "Recent must return a copy")
}

func TestThread_Clone(t *testing.T) {
	th := NewThread("t4")
	th.Append(NewUserMessage("hi"))

	clone := th.Clone()
	clone.Append(NewAgentMessage(AgentVCSimulator, "no"))

	assert.Equal(t, 1, th.Len())
	assert.Empty(t, th.LastAgent)
	assert.Equal(t, 2, clone.Len())
}

func TestUnknownAgentError(t *testing.T) {
	err := NewUnknownAgentError("astrologer")
	assert.True(t, errors.Is(err, ErrUnknownAgent))
	assert.Contains(t, err.Error(), "astrologer")

	var uae *UnknownAgentError
	require.ErrorAs(t, err, &uae)
	assert.Equal(t, AgentID("astrologer"), uae.AgentID)
}

func TestModelLimiter(t *testing.T) {
	ml := NewModelLimiter(2)
	require.NoError(t, ml.Acquire())
	require.NoError(t, ml.Acquire())
	assert.Equal(t, 0, ml.Remaining())

	err := ml.Acquire()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelBudgetExceeded)
	assert.Equal(t, 2, ml.Count())

	unlimited := NewModelLimiter(0)
	for i := 0; i < 5; i++ {
		require.NoError(t, unlimited.Acquire())
	}
	assert.Equal(t, -1, unlimited.Remaining())
}
