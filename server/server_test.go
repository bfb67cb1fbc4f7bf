package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sherpa/agent"
	"github.com/hupe1980/sherpa/core"
	"github.com/hupe1980/sherpa/engine"
	"github.com/hupe1980/sherpa/metrics"
	"github.com/hupe1980/sherpa/model"
	"github.com/hupe1980/sherpa/router"
)

type testEnv struct {
	server    *Server
	routing   *model.MockModel
	generator *model.MockModel
	metrics   *metrics.Collector
}

func newTestEnv(t *testing.T, optFns ...func(o *Options)) *testEnv {
	t.Helper()

	routing := model.NewMockModel("routing", "mock")
	generator := model.NewMockModel("generation", "mock")
	collector := metrics.New()

	eng := engine.New(router.NewSupervisor(routing), agent.NewExecutor(generator))
	collector.Register(eng.Callbacks())

	opts := append([]func(o *Options){
		func(o *Options) {
			o.AllowedOrigins = []string{"http://localhost:3000"}
			o.Metrics = collector
			o.RateLimitRPM = 0
		},
	}, optFns...)

	s := New(eng, opts...)
	t.Cleanup(s.Close)

	return &testEnv{server: s, routing: routing, generator: generator, metrics: collector}
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHealthAndRoot(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var root rootResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &root))
	assert.Equal(t, Version, root.Version)
	assert.Equal(t, ServiceMessage, root.Message)
	assert.Len(t, root.Agents, 8)
	assert.Contains(t, root.Agents, "GrantHunter")

	rec = httptest.NewRecorder()
	env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChat_Routed(t *testing.T) {
	env := newTestEnv(t)
	env.routing.EnqueueError(errors.New("classifier down"))

	rec := postChat(t, env.server, `{"message":"보조금 정보 알려줘"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "grant_hunter", resp["agent"])
	assert.Equal(t, "Mock response to: 보조금 정보 알려줘", resp["response"])
	assert.True(t, strings.HasPrefix(resp["thread_id"], "thread_"))
	assert.Len(t, resp, 3, "response carries exactly response, agent and thread_id")
}

func TestChat_ExplicitAgentAndThread(t *testing.T) {
	env := newTestEnv(t)

	rec := postChat(t, env.server, `{"message":"MVP 만들어줘","agent":"mvp_builder","thread_id":"thread_abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp engine.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, core.AgentMVPBuilder, resp.Agent)
	assert.Equal(t, "thread_abc", resp.ThreadID)
	assert.Equal(t, 0, env.routing.Calls())
}

func TestChat_Errors(t *testing.T) {
	env := newTestEnv(t)

	rec := postChat(t, env.server, `{"message":"hi","agent":"astrologer"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "astrologer")

	rec = postChat(t, env.server, `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postChat(t, env.server, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.RateLimitRPM = 1
		o.RateLimitBurst = 2
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.routing.EnqueueError(errors.New("down"))

	require.Equal(t, http.StatusOK, postChat(t, env.server, `{"message":"투자 유치 전략"}`).Code)

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `sherpa_http_requests_total{code="200",route="/chat"} 1`)
	assert.Contains(t, body, `sherpa_routing_decisions_total{agent="vc_simulator",source="fallback"} 1`)
	assert.Contains(t, body, `sherpa_agent_runs_total{agent="vc_simulator"} 1`)
}

func TestWebSocket(t *testing.T) {
	env := newTestEnv(t)
	env.generator.Enqueue(model.Response{Content: "첫 답변"})
	env.generator.Enqueue(model.Response{Content: "둘째 답변"})

	ts := httptest.NewServer(env.server)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://localhost:3000"}}

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	var reply engine.ChatResponse

	require.NoError(t, conn.WriteJSON(map[string]string{"message": ""}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, EmptyMessageReply, reply.Response)
	assert.Equal(t, core.AgentID(engine.SupervisorAgent), reply.Agent)
	threadID := reply.ThreadID
	require.NotEmpty(t, threadID)

	require.NoError(t, conn.WriteJSON(map[string]string{"message": "계약서 검토", "agent": "legal_advisor"}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, core.AgentLegalAdvisor, reply.Agent)
	assert.Equal(t, threadID, reply.ThreadID, "the connection keeps its thread")
	assert.True(t, agent.HasDisclaimer(reply.Response))

	require.NoError(t, conn.WriteJSON(map[string]string{"message": "코드 짜줘", "agent": "mvp_builder"}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "둘째 답변", reply.Response)

	require.NoError(t, conn.WriteJSON(map[string]string{"message": "hi", "agent": "astrologer"}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.True(t, strings.HasPrefix(reply.Response, "Error: "))

	th, err := env.server.engine.Sessions().Get(t.Context(), threadID)
	require.NoError(t, err)
	assert.Equal(t, 4, th.Len())
}

func TestWebSocket_RejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t)

	ts := httptest.NewServer(env.server)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
