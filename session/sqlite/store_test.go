package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sherpa/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "threads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestStore_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrThreadNotFound)

	th, err := store.GetOrCreate(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", th.ID)
	assert.Equal(t, 0, th.Len())
	assert.False(t, th.Created.IsZero())

	again, err := store.GetOrCreate(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, th.Created, again.Created)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_AppendPreservesOrderAndLastAgent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Append(ctx, "t1", core.NewUserMessage("정부 지원금 알려줘")))
	require.NoError(t, store.Append(ctx, "t1", core.NewAgentMessage(core.AgentGrantHunter, "예비창업패키지")))
	require.NoError(t, store.Append(ctx, "t1", core.NewUserMessage("마감일은?")))

	th, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, 3, th.Len())
	assert.Equal(t, core.AgentGrantHunter, th.LastAgent)
	assert.Equal(t, "정부 지원금 알려줘", th.Messages[0].Content)
	assert.Equal(t, core.RoleAgent, th.Messages[1].Role)
	assert.Equal(t, core.AgentGrantHunter, th.Messages[1].AgentID)
	assert.Equal(t, "마감일은?", th.Messages[2].Content)
}

func TestStore_ToolCallsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	msg := core.NewAgentMessage(core.AgentMarketSensor, "")
	msg.ToolCalls = []core.ToolCall{{ID: "search", Name: "web_search", Arguments: `{"query":"트렌드"}`}}

	require.NoError(t, store.Append(ctx, "t1", msg))
	require.NoError(t, store.Append(ctx, "t1", core.NewToolResultMessage("search", "results")))

	th, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, th.Messages, 2)
	require.Len(t, th.Messages[0].ToolCalls, 1)
	assert.Equal(t, "web_search", th.Messages[0].ToolCalls[0].Name)
	assert.Equal(t, "search", th.Messages[1].ToolCallID)
}

func TestStore_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "threads.db")

	store, err := New(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "t1", core.NewUserMessage("hello")))
	require.NoError(t, store.Append(ctx, "t1", core.NewAgentMessage(core.AgentCofounder, "hi")))
	require.NoError(t, store.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	th, err := reopened.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, th.Len())
	assert.Equal(t, core.AgentCofounder, th.LastAgent)
}
