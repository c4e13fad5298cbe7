package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"promobot/internal/agent"
	"promobot/internal/domain"
	"promobot/internal/metrics"
)

const apiMaxBodySize = 1 << 20 // 1MB

// Generator runs the agent directly, without going through a chat channel.
type Generator interface {
	Generate(ctx context.Context, req agent.GenerateRequest) (string, error)
}

// APIServer exposes the generate endpoint over HTTP. Unlike the chat
// channels it returns the agent's text in the HTTP response; no reply
// delivery is involved.
type APIServer struct {
	host   string
	port   int
	apiKey string
	gen    Generator
	logger *slog.Logger
	server *http.Server
}

type APIConfig struct {
	Host   string
	Port   int
	APIKey string
	Logger *slog.Logger
}

func NewAPIServer(cfg APIConfig, gen Generator) *APIServer {
	return &APIServer{
		host:   cfg.Host,
		port:   cfg.Port,
		apiKey: cfg.APIKey,
		gen:    gen,
		logger: cfg.Logger,
	}
}

func (s *APIServer) Name() string { return "api" }

// Start runs the HTTP server until ctx is cancelled. The bus is unused:
// generate requests bypass the chat workflow.
func (s *APIServer) Start(ctx context.Context, bus domain.MessageBus) error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /metrics", metrics.Collector.Handler())

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      150 * time.Second, // allow time for LLM response
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	s.logger.Info("api server started", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *APIServer) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

type generateRequest struct {
	Messages   []generateMessage `json:"messages"`
	ResourceID string            `json:"resourceId"`
	ThreadID   string            `json:"threadId"`
	MaxSteps   int               `json:"maxSteps"`
}

type generateMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generateResponse struct {
	Text string `json:"text"`
}

func (s *APIServer) handleGenerate(rw http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSONError(rw, http.StatusUnauthorized, "invalid API key")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, apiMaxBodySize))
	if err != nil {
		writeJSONError(rw, http.StatusBadRequest, "bad request")
		return
	}

	var req generateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSONError(rw, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Messages) == 0 {
		writeJSONError(rw, http.StatusBadRequest, "messages must not be empty")
		return
	}

	messages := make([]domain.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := m.Role
		if role == "" {
			role = "user"
		}
		messages = append(messages, domain.Message{Role: role, Content: m.Content})
	}

	text, err := s.gen.Generate(r.Context(), agent.GenerateRequest{
		Messages:   messages,
		ResourceID: req.ResourceID,
		ThreadID:   req.ThreadID,
		MaxSteps:   req.MaxSteps,
	})
	if err != nil {
		s.logger.Error("generate failed", "err", err)
		writeJSONError(rw, http.StatusInternalServerError, err.Error())
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(generateResponse{Text: text})
}

func (s *APIServer) handleHealth(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(map[string]string{
		"status": "ok",
		"uptime": metrics.Collector.Uptime().String(),
	})
}

func (s *APIServer) authorized(r *http.Request) bool {
	if s.apiKey == "" {
		return true
	}
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.apiKey
}

func writeJSONError(rw http.ResponseWriter, code int, msg string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	json.NewEncoder(rw).Encode(map[string]string{"error": msg})
}
