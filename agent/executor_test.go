package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sherpa/core"
	"github.com/hupe1980/sherpa/internal/testutil"
	"github.com/hupe1980/sherpa/model"
	"github.com/hupe1980/sherpa/tool"
)

type searchRecorder struct {
	queries []string
	err     error
}

func (s *searchRecorder) tool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
		},
		"required": []string{"query"},
	}

	return tool.NewFunctionTool("web_search", "search the web", params, func(_ context.Context, args map[string]any) (any, error) {
		q, _ := args["query"].(string)
		s.queries = append(s.queries, q)
		if s.err != nil {
			return nil, s.err
		}
		return []map[string]string{{"title": "K-Startup 공고", "url": "https://k-startup.go.kr"}}, nil
	})
}

func TestExecutor_UnknownAgent(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	ex := NewExecutor(llm)

	th := testutil.NewThreadBuilder("t").User("hi").Build()

	_, err := ex.Execute(context.Background(), "astrologer", th)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnknownAgent))
	assert.True(t, errors.Is(err, core.ErrConfiguration))
	assert.True(t, IsConfigurationError(err))
	assert.Equal(t, 0, llm.Calls())
}

func TestExecutor_ReplaysHistory(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.AddResponse("두 번째 질문", "두 번째 답변")

	ex := NewExecutor(llm, func(o *ExecutorOptions) { o.Language = "English" })

	th := testutil.NewThreadBuilder("t").
		User("첫 질문").
		Agent(core.AgentVCSimulator, "첫 답변").
		User("두 번째 질문").
		Build()

	res, err := ex.Execute(context.Background(), core.AgentCofounder, th)
	require.NoError(t, err)
	assert.Equal(t, core.AgentCofounder, res.AgentID)
	assert.Equal(t, "두 번째 답변", res.Content)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Instructions, "Always respond in English")
	assert.Empty(t, reqs[0].Tools)
	require.Len(t, reqs[0].Messages, 3)
	assert.Equal(t, core.RoleUser, reqs[0].Messages[0].Role)
	assert.Equal(t, core.RoleAgent, reqs[0].Messages[1].Role)
	assert.Equal(t, "두 번째 질문", reqs[0].Messages[2].Content)

	assert.Equal(t, 3, th.Len(), "execute never mutates the thread")
}

func TestExecutor_LegalDisclaimerAppended(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.Enqueue(model.Response{Content: "NDA 초안입니다."})

	ex := NewExecutor(llm)
	th := testutil.NewThreadBuilder("t").User("NDA 작성해줘").Build()

	res, err := ex.Execute(context.Background(), core.AgentLegalAdvisor, th)
	require.NoError(t, err)
	assert.Contains(t, res.Content, "면책 조항")
	assert.Greater(t, len(res.Content), len("NDA 초안입니다."))
	assert.True(t, strings.HasPrefix(res.Content, "NDA 초안입니다."))
}

func TestExecutor_LegalDisclaimerKept(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	body := "계약 검토 결과\n\n> **⚠️ 면책조항:** 참고용"
	llm.Enqueue(model.Response{Content: body})

	ex := NewExecutor(llm)
	th := testutil.NewThreadBuilder("t").User("계약서 검토").Build()

	res, err := ex.Execute(context.Background(), core.AgentLegalAdvisor, th)
	require.NoError(t, err)
	assert.Equal(t, body, res.Content)
}

func TestExecutor_SearchRoundTrip(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.Enqueue(model.Response{ToolCalls: []core.ToolCall{{Name: "web_search", Arguments: `{"query":"2025 예비창업패키지"}`}}})
	llm.Enqueue(model.Response{Content: "예비창업패키지 공고를 찾았습니다."})

	rec := &searchRecorder{}
	ex := NewExecutor(llm, func(o *ExecutorOptions) { o.SearchTool = rec.tool() })

	th := testutil.NewThreadBuilder("t").User("보조금 정보 알려줘").Build()

	res, err := ex.Execute(context.Background(), core.AgentGrantHunter, th)
	require.NoError(t, err)
	assert.Equal(t, "예비창업패키지 공고를 찾았습니다.", res.Content)
	assert.Equal(t, []string{"2025 예비창업패키지"}, rec.queries)

	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	require.Len(t, reqs[0].Tools, 1)
	assert.Equal(t, "web_search", reqs[0].Tools[0].Function.Name)
	assert.Empty(t, reqs[1].Tools, "follow-up call must not bind tools")

	follow := reqs[1].Messages
	require.Len(t, follow, 3)
	assert.Equal(t, core.RoleAgent, follow[1].Role)
	require.Len(t, follow[1].ToolCalls, 1)
	assert.Equal(t, DefaultToolCallID, follow[1].ToolCalls[0].ID)
	assert.Equal(t, core.RoleToolResult, follow[2].Role)
	assert.Equal(t, DefaultToolCallID, follow[2].ToolCallID)
	assert.Contains(t, follow[2].Content, "K-Startup 공고")
}

func TestExecutor_SearchAssignsDistinctToolCallIDs(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.Enqueue(model.Response{ToolCalls: []core.ToolCall{
		{Name: "web_search", Arguments: `{"query":"시장 규모"}`},
		{ID: "call_x", Name: "web_search", Arguments: `{"query":"경쟁사"}`},
		{Name: "web_search", Arguments: `{"query":"트렌드"}`},
	}})
	llm.Enqueue(model.Response{Content: "분석 결과입니다."})

	rec := &searchRecorder{}
	ex := NewExecutor(llm, func(o *ExecutorOptions) { o.SearchTool = rec.tool() })

	th := testutil.NewThreadBuilder("t").User("시장 조사 해줘").Build()

	res, err := ex.Execute(context.Background(), core.AgentMarketSensor, th)
	require.NoError(t, err)
	assert.Equal(t, "분석 결과입니다.", res.Content)
	assert.Len(t, rec.queries, 3)

	reqs := llm.Requests()
	require.Len(t, reqs, 2)

	follow := reqs[1].Messages
	require.Len(t, follow, 5)

	var callIDs []string
	for _, tc := range follow[1].ToolCalls {
		callIDs = append(callIDs, tc.ID)
	}
	assert.Equal(t, []string{"search_1", "call_x", "search_3"}, callIDs)

	assert.Equal(t, "search_1", follow[2].ToolCallID)
	assert.Equal(t, "call_x", follow[3].ToolCallID)
	assert.Equal(t, "search_3", follow[4].ToolCallID)
}

func TestExecutor_SearchArgumentsDegrade(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.Enqueue(model.Response{ToolCalls: []core.ToolCall{{ID: "call_1", Name: "web_search", Arguments: "AI 시장 규모"}}})
	llm.Enqueue(model.Response{Content: "시장 분석"})

	rec := &searchRecorder{}
	ex := NewExecutor(llm, func(o *ExecutorOptions) { o.SearchTool = rec.tool() })

	th := testutil.NewThreadBuilder("t").User("AI 시장 분석").Build()

	res, err := ex.Execute(context.Background(), core.AgentMarketSensor, th)
	require.NoError(t, err)
	assert.Equal(t, "시장 분석", res.Content)
	assert.Equal(t, []string{"AI 시장 규모"}, rec.queries)
	assert.Equal(t, "call_1", llm.Requests()[1].Messages[2].ToolCallID)
}

func TestExecutor_SearchFailureBecomesToolContent(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.Enqueue(model.Response{ToolCalls: []core.ToolCall{{ID: "c1", Name: "web_search", Arguments: `{"query":"q"}`}}})
	llm.Enqueue(model.Response{Content: "검색 없이 답변합니다."})

	rec := &searchRecorder{err: errors.New("tavily unavailable")}
	ex := NewExecutor(llm, func(o *ExecutorOptions) { o.SearchTool = rec.tool() })

	th := testutil.NewThreadBuilder("t").User("보조금").Build()

	res, err := ex.Execute(context.Background(), core.AgentGrantHunter, th)
	require.NoError(t, err)
	assert.Equal(t, "검색 없이 답변합니다.", res.Content)
	assert.Contains(t, llm.Requests()[1].Messages[2].Content, "tavily unavailable")
}

func TestExecutor_UnknownToolCall(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.Enqueue(model.Response{ToolCalls: []core.ToolCall{{ID: "c1", Name: "calculator", Arguments: `{}`}}})
	llm.Enqueue(model.Response{Content: "done"})

	rec := &searchRecorder{}
	ex := NewExecutor(llm, func(o *ExecutorOptions) { o.SearchTool = rec.tool() })

	th := testutil.NewThreadBuilder("t").User("경쟁사").Build()

	res, err := ex.Execute(context.Background(), core.AgentMarketSensor, th)
	require.NoError(t, err)
	assert.Equal(t, "done", res.Content)
	assert.Empty(t, rec.queries)
	assert.Contains(t, llm.Requests()[1].Messages[2].Content, "not found")
}

func TestExecutor_NoSearchToolConfigured(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	ex := NewExecutor(llm)

	th := testutil.NewThreadBuilder("t").User("보조금").Build()

	res, err := ex.Execute(context.Background(), core.AgentGrantHunter, th)
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: 보조금", res.Content)
	assert.Empty(t, llm.Requests()[0].Tools)
}

func TestExecutor_NonSearchAgentIgnoresToolCalls(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.Enqueue(model.Response{Content: "plain", ToolCalls: []core.ToolCall{{Name: "web_search"}}})

	rec := &searchRecorder{}
	ex := NewExecutor(llm, func(o *ExecutorOptions) { o.SearchTool = rec.tool() })

	th := testutil.NewThreadBuilder("t").User("아이디어").Build()

	res, err := ex.Execute(context.Background(), core.AgentCofounder, th)
	require.NoError(t, err)
	assert.Equal(t, "plain", res.Content)
	assert.Equal(t, 1, llm.Calls())
	assert.Empty(t, llm.Requests()[0].Tools)
}

func TestExecutor_QuotaError(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.EnqueueError(errors.New("googleapi: Error 429: Quota exceeded for metric"))

	ex := NewExecutor(llm)
	th := testutil.NewThreadBuilder("t").User("hi").Build()

	res, err := ex.Execute(context.Background(), core.AgentGrowthHacker, th)
	require.NoError(t, err, "generation failures are never propagated")
	assert.Equal(t, QuotaExceededMessage, res.Content)
	assert.Equal(t, core.AgentGrowthHacker, res.AgentID)
}

func TestExecutor_GenericError(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.EnqueueError(errors.New("boom"))

	ex := NewExecutor(llm)
	th := testutil.NewThreadBuilder("t").User("hi").Build()

	res, err := ex.Execute(context.Background(), core.AgentLegalAdvisor, th)
	require.NoError(t, err)
	assert.Contains(t, res.Content, "오류가 발생했습니다")
	assert.Contains(t, res.Content, "boom")
	assert.Contains(t, res.Content, "면책 조항", "legal replies always carry the disclaimer")
}

func TestExecutor_LeanCanvas(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.Enqueue(model.Response{Content: leanCanvasJSON()})

	ex := NewExecutor(llm)
	th := testutil.NewThreadBuilder("t").
		User("반려견 산책 서비스를 구상 중이에요").
		Agent(core.AgentCofounder, "좋은 아이디어네요").
		User("린 캔버스로 정리해줘").
		Build()

	res, err := ex.Execute(context.Background(), core.AgentFrameworkDesigner, th)
	require.NoError(t, err)

	var payload struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content), &payload))
	assert.Equal(t, "lean_canvas", payload.Type)
	require.Len(t, payload.Data, 9)
	for field, v := range payload.Data {
		assert.NotEmpty(t, v, field)
	}

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].Schema)
	assert.Equal(t, "lean_canvas", reqs[0].Schema.Name)

	msgs := reqs[0].Messages
	require.Len(t, msgs, 3)
	last := msgs[2]
	assert.True(t, last.IsUser())
	assert.Contains(t, last.Content, "사용자 메시지: 린 캔버스로 정리해줘")
	assert.Contains(t, last.Content, "Lean Canvas의 9개 블록")
}

func TestExecutor_BusinessModelCanvas(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.Enqueue(model.Response{Content: bmcJSON()})

	ex := NewExecutor(llm)
	th := testutil.NewThreadBuilder("t").User("BMC 작성해줘").Build()

	res, err := ex.Execute(context.Background(), core.AgentFrameworkDesigner, th)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Content, `{"type":"business_model_canvas","data":{"key_partners":"동물병원"`))
}

func TestExecutor_CanvasInvalidOutput(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.Enqueue(model.Response{Content: `{"problem":"only one"}`})

	ex := NewExecutor(llm)
	th := testutil.NewThreadBuilder("t").User("lean canvas please").Build()

	res, err := ex.Execute(context.Background(), core.AgentFrameworkDesigner, th)
	require.NoError(t, err)
	assert.Contains(t, res.Content, "오류가 발생했습니다")
}

func TestExecutor_CanvasClarification(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")

	ex := NewExecutor(llm)
	th := testutil.NewThreadBuilder("t").User("캔버스 만들어줘").Build()

	res, err := ex.Execute(context.Background(), core.AgentFrameworkDesigner, th)
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: 캔버스 만들어줘"+CanvasClarification, res.Content)

	req := llm.Requests()[0]
	assert.Nil(t, req.Schema)
	require.Len(t, req.Messages, 1)
	assert.True(t, strings.HasSuffix(req.Messages[0].Content, CanvasClarification))
}
