// Package server exposes the Sherpa engine over HTTP: a JSON chat endpoint,
// a WebSocket chat loop, health and info endpoints and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/sherpa/core"
	"github.com/hupe1980/sherpa/engine"
	"github.com/hupe1980/sherpa/logging"
	"github.com/hupe1980/sherpa/metrics"
)

const (
	// Version is reported by the root endpoint.
	Version = "2.0.0"

	// ServiceMessage is the greeting of the root endpoint.
	ServiceMessage = "Startup Sherpa API - 창업을 도와주는 짐꾼이자 길잡이"

	// EmptyMessageReply answers WebSocket frames without message text.
	EmptyMessageReply = "Please provide a message"

	maxBodyBytes = 1 << 20
)

// Options configures a Server.
type Options struct {
	// AllowedOrigins lists the CORS origins. "*" allows any origin.
	AllowedOrigins []string
	// RateLimitRPM is the per client IP request budget; 0 disables limiting.
	RateLimitRPM   int
	RateLimitBurst int
	// RequestTimeout bounds a single chat turn; 0 disables the timeout.
	RequestTimeout time.Duration
	// Metrics enables /metrics and HTTP instrumentation when set.
	Metrics *metrics.Collector
	Logger  logging.Logger
}

// Server is the HTTP transport in front of an engine.
type Server struct {
	engine   *engine.Engine
	opts     Options
	logger   logging.Logger
	upgrader websocket.Upgrader
	handler  http.Handler
	cancel   context.CancelFunc
}

// New builds the HTTP handler tree. Call Close to stop background work.
func New(eng *engine.Engine, optFns ...func(o *Options)) *Server {
	opts := Options{
		RateLimitRPM:   60,
		RateLimitBurst: 10,
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		engine: eng,
		opts:   opts,
		logger: opts.Logger,
		cancel: cancel,
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	mux := http.NewServeMux()
	mux.Handle("POST /chat", s.instrument("/chat", http.HandlerFunc(s.handleChat)))
	mux.Handle("GET /ws", s.instrument("/ws", http.HandlerFunc(s.handleWebSocket)))
	mux.Handle("GET /health", s.instrument("/health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /{$}", s.instrument("/", http.HandlerFunc(s.handleRoot)))

	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	var h http.Handler = mux
	if opts.RateLimitRPM > 0 {
		h = newRateLimiter(ctx, opts.RateLimitRPM, opts.RateLimitBurst).middleware(h)
	}

	s.handler = cors(opts.AllowedOrigins, h)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

// Close stops background goroutines.
func (s *Server) Close() { s.cancel() }

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("server.listen", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.logger.Info("server.shutdown")

		return srv.Shutdown(shutdownCtx)
	}
}

type rootResponse struct {
	Message string   `json:"message"`
	Version string   `json:"version"`
	Agents  []string `json:"agents"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Message: ServiceMessage,
		Version: Version,
		Agents:  s.engine.Registry().Labels(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req engine.ChatRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ctx := r.Context()
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	resp, err := s.engine.Chat(ctx, req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("server.chat.failed", "thread_id", req.ThreadID, "error", err.Error())
		}

		writeError(w, status, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("server.ws.upgrade_failed", "error", err.Error())
		return
	}
	defer conn.Close()

	s.logger.Info("server.ws.connected", "remote", r.RemoteAddr)

	// The thread id sticks to the connection once known.
	var threadID string

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("server.ws.read_failed", "error", err.Error())
			}

			s.logger.Info("server.ws.disconnected", "remote", r.RemoteAddr, "thread_id", threadID)

			return
		}

		reply := s.wsTurn(r.Context(), data, &threadID)

		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Warn("server.ws.write_failed", "error", err.Error())
			return
		}
	}
}

// wsTurn handles one WebSocket frame. Failures are reported in-band so the
// connection stays usable.
func (s *Server) wsTurn(ctx context.Context, data []byte, threadID *string) engine.ChatResponse {
	var req engine.ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return s.wsError(*threadID, "invalid message: "+err.Error())
	}

	if req.ThreadID != "" {
		*threadID = req.ThreadID
	}

	if *threadID == "" {
		*threadID = s.engine.Sessions().NewThreadID()
	}

	if strings.TrimSpace(req.Message) == "" {
		return engine.ChatResponse{Response: EmptyMessageReply, Agent: engine.SupervisorAgent, ThreadID: *threadID}
	}

	req.ThreadID = *threadID

	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	resp, err := s.engine.Chat(ctx, req)
	if err != nil {
		return s.wsError(*threadID, err.Error())
	}

	return resp
}

func (s *Server) wsError(threadID, msg string) engine.ChatResponse {
	return engine.ChatResponse{Response: "Error: " + msg, Agent: engine.SupervisorAgent, ThreadID: threadID}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, o := range s.opts.AllowedOrigins {
		if o == "*" || strings.TrimRight(o, "/") == origin {
			return true
		}
	}

	return false
}

func (s *Server) instrument(route string, next http.Handler) http.Handler {
	if s.opts.Metrics == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.opts.Metrics.ObserveHTTP(route, rec.status, time.Since(start))
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownAgent), errors.Is(err, engine.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
