package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"promobot/internal/domain"
	"promobot/internal/tool"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedProvider returns its responses in order, then repeats the last one.
type scriptedProvider struct {
	responses []domain.ChatResponse
	calls     int
	err       error
	lastReq   domain.ChatRequest
}

func (p *scriptedProvider) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	p.lastReq = req
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	idx := p.calls - 1
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	resp := p.responses[idx]
	return &resp, nil
}

func (p *scriptedProvider) Name() string                     { return "scripted" }
func (p *scriptedProvider) Models() []string                 { return []string{"test-model"} }
func (p *scriptedProvider) SupportsToolCalling() bool        { return true }
func (p *scriptedProvider) Healthy(ctx context.Context) error { return nil }

type echoTool struct{}

func (echoTool) Name() string               { return "echo" }
func (echoTool) Description() string        { return "echoes" }
func (echoTool) Parameters() map[string]any { return tool.ToolParameters(nil, nil) }
func (echoTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return "echoed: " + tool.ArgsString(args, "text"), nil
}

func newTestAgent(p domain.Provider) *Agent {
	reg := tool.NewRegistry(testLogger())
	reg.Register(echoTool{})
	return New(Config{
		Provider: p,
		Tools:    reg,
		Logger:   testLogger(),
		MaxSteps: 5,
	})
}

func TestRespondPlainText(t *testing.T) {
	p := &scriptedProvider{responses: []domain.ChatResponse{{Content: "hello there"}}}
	a := newTestAgent(p)

	got, err := a.Respond(context.Background(), domain.InboundMessage{
		Channel: "cli", ChatID: "local", Content: "hi",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello there" {
		t.Errorf("got %q", got)
	}
	if p.calls != 1 {
		t.Errorf("provider called %d times, want 1", p.calls)
	}
	if p.lastReq.Messages[0].Role != "system" {
		t.Errorf("first message should be the system prompt")
	}
}

func TestRespondRunsToolsThenAnswers(t *testing.T) {
	p := &scriptedProvider{responses: []domain.ChatResponse{
		{ToolCalls: []domain.ToolCall{{ID: "1", Name: "echo", Arguments: map[string]any{"text": "ping"}}}},
		{Content: "done"},
	}}
	a := newTestAgent(p)

	got, err := a.Respond(context.Background(), domain.InboundMessage{Channel: "cli", ChatID: "local", Content: "use the tool"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "done" {
		t.Errorf("got %q", got)
	}
	if p.calls != 2 {
		t.Fatalf("provider called %d times, want 2", p.calls)
	}

	// Second call must carry the assistant tool-call turn and the tool result.
	msgs := p.lastReq.Messages
	var sawToolResult bool
	for _, m := range msgs {
		if m.Role == "tool" && strings.Contains(m.Content, "echoed: ping") {
			sawToolResult = true
		}
	}
	if !sawToolResult {
		t.Errorf("tool result missing from second request: %+v", msgs)
	}
}

func TestRespondPropagatesProviderError(t *testing.T) {
	boom := errors.New("upstream 500")
	p := &scriptedProvider{err: boom}
	a := newTestAgent(p)

	_, err := a.Respond(context.Background(), domain.InboundMessage{Channel: "cli", ChatID: "local", Content: "hi"})
	if !errors.Is(err, boom) {
		t.Fatalf("want wrapped provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "use-agent") {
		t.Errorf("error %q should carry the use-agent prefix", err)
	}
}

func TestRunStopsAtMaxSteps(t *testing.T) {
	// Provider asks for a tool on every call; the loop must give up.
	p := &scriptedProvider{responses: []domain.ChatResponse{
		{ToolCalls: []domain.ToolCall{{ID: "1", Name: "echo", Arguments: map[string]any{"text": "again"}}}},
	}}
	a := newTestAgent(p)

	got, err := a.Generate(context.Background(), GenerateRequest{
		Messages: []domain.Message{{Role: "user", Content: "loop forever"}},
		MaxSteps: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.calls != 3 {
		t.Errorf("provider called %d times, want 3", p.calls)
	}
	if got == "" {
		t.Errorf("want fallback text when step budget runs out")
	}
}

func TestGenerateRejectsEmptyMessages(t *testing.T) {
	a := newTestAgent(&scriptedProvider{responses: []domain.ChatResponse{{Content: "x"}}})
	if _, err := a.Generate(context.Background(), GenerateRequest{}); err == nil {
		t.Fatal("want error for empty messages")
	}
}

func TestToolErrorFedBackToModel(t *testing.T) {
	// Unknown tool name: the registry error becomes the tool-result content
	// and the loop continues instead of failing the request.
	p := &scriptedProvider{responses: []domain.ChatResponse{
		{ToolCalls: []domain.ToolCall{{ID: "1", Name: "no_such_tool"}}},
		{Content: "recovered"},
	}}
	a := newTestAgent(p)

	got, err := a.Respond(context.Background(), domain.InboundMessage{Channel: "cli", ChatID: "local", Content: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "recovered" {
		t.Errorf("got %q", got)
	}
	var sawError bool
	for _, m := range p.lastReq.Messages {
		if m.Role == "tool" && strings.Contains(m.Content, "Error executing tool") {
			sawError = true
		}
	}
	if !sawError {
		t.Errorf("tool error not surfaced to the model")
	}
}
