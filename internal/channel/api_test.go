package channel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"promobot/internal/agent"
	"promobot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubGenerator struct {
	text    string
	err     error
	lastReq agent.GenerateRequest
}

func (g *stubGenerator) Generate(ctx context.Context, req agent.GenerateRequest) (string, error) {
	g.lastReq = req
	return g.text, g.err
}

func newTestAPI(gen Generator, apiKey string) *APIServer {
	return NewAPIServer(APIConfig{Host: "127.0.0.1", Port: 4111, APIKey: apiKey, Logger: testLogger()}, gen)
}

func postGenerate(t *testing.T, s *APIServer, body, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	rec := httptest.NewRecorder()
	s.handleGenerate(rec, req)
	return rec
}

func TestGenerateEndpoint(t *testing.T) {
	gen := &stubGenerator{text: "three products found"}
	s := newTestAPI(gen, "")

	rec := postGenerate(t, s, `{"messages":[{"role":"user","content":"find products"}],"maxSteps":3}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp generateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Text != "three products found" {
		t.Errorf("text = %q", resp.Text)
	}
	if gen.lastReq.MaxSteps != 3 {
		t.Errorf("maxSteps not forwarded: %d", gen.lastReq.MaxSteps)
	}
	if len(gen.lastReq.Messages) != 1 || gen.lastReq.Messages[0].Content != "find products" {
		t.Errorf("messages not forwarded: %+v", gen.lastReq.Messages)
	}
}

func TestGenerateEndpointErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		gen  *stubGenerator
		want int
	}{
		{"invalid json", `{not json`, &stubGenerator{}, http.StatusBadRequest},
		{"empty messages", `{"messages":[]}`, &stubGenerator{}, http.StatusBadRequest},
		{"agent failure", `{"messages":[{"role":"user","content":"x"}]}`, &stubGenerator{err: errors.New("upstream 500")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postGenerate(t, newTestAPI(tt.gen, ""), tt.body, "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("error body not JSON: %s", rec.Body.String())
			}
			if resp["error"] == "" {
				t.Errorf("error body missing error field: %s", rec.Body.String())
			}
		})
	}
}

func TestGenerateEndpointAuth(t *testing.T) {
	s := newTestAPI(&stubGenerator{text: "ok"}, "secret")

	rec := postGenerate(t, s, `{"messages":[{"role":"user","content":"x"}]}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key: status = %d, want 401", rec.Code)
	}

	rec = postGenerate(t, s, `{"messages":[{"role":"user","content":"x"}]}`, "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", rec.Code)
	}

	rec = postGenerate(t, s, `{"messages":[{"role":"user","content":"x"}]}`, "secret")
	if rec.Code != http.StatusOK {
		t.Errorf("right key: status = %d, want 200", rec.Code)
	}
}

func TestSendersRouting(t *testing.T) {
	senders := NewSenders()

	var got domain.Reply
	senders.Register("telegram", replySenderFunc(func(ctx context.Context, reply domain.Reply) error {
		got = reply
		return nil
	}))

	err := senders.SendReply(context.Background(), domain.Reply{Channel: "telegram", ChatID: "1", Text: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "hi" {
		t.Errorf("reply not routed: %+v", got)
	}

	err = senders.SendReply(context.Background(), domain.Reply{Channel: "discord", ChatID: "1"})
	if err == nil {
		t.Fatal("want error for unregistered channel")
	}
}

type replySenderFunc func(ctx context.Context, reply domain.Reply) error

func (f replySenderFunc) SendReply(ctx context.Context, reply domain.Reply) error {
	return f(ctx, reply)
}
