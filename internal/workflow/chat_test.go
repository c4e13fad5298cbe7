package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"promobot/internal/bus"
	"promobot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubResponder struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (s *stubResponder) Respond(ctx context.Context, msg domain.InboundMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.text, s.err
}

type stubSender struct {
	mu    sync.Mutex
	err   error
	calls int
	last  domain.Reply
}

func (s *stubSender) SendReply(ctx context.Context, reply domain.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = reply
	return s.err
}

func (s *stubSender) sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestChatRunHappyPath(t *testing.T) {
	responder := &stubResponder{text: "here are some products"}
	sender := &stubSender{}
	chat := NewChat(responder, sender, testLogger())

	res, err := chat.Run(context.Background(), domain.InboundMessage{
		Channel: "telegram", ChatID: "42", MessageID: "m1", Content: "find products",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Sent || res.Text != "here are some products" {
		t.Errorf("result = %+v", res)
	}
	if sender.calls != 1 {
		t.Fatalf("sender called %d times, want 1", sender.calls)
	}
	if sender.last.ChatID != "42" || sender.last.ReplyToMessageID != "m1" {
		t.Errorf("reply misaddressed: %+v", sender.last)
	}
}

func TestChatRunDeliveryFailureIsNotAnError(t *testing.T) {
	responder := &stubResponder{text: "draft ready"}
	sender := &stubSender{err: errors.New("telegram: 502")}
	chat := NewChat(responder, sender, testLogger())

	res, err := chat.Run(context.Background(), domain.InboundMessage{Channel: "telegram", ChatID: "42"})
	if err != nil {
		t.Fatalf("delivery failure must not fail the run: %v", err)
	}
	if res.Sent {
		t.Errorf("Sent should be false after delivery failure")
	}
	if res.Text != "draft ready" {
		t.Errorf("reply text must be preserved, got %q", res.Text)
	}
	if sender.calls != 1 {
		t.Errorf("delivery attempted %d times, want exactly 1 (no retry)", sender.calls)
	}
}

func TestChatRunGenerationFailureSkipsDelivery(t *testing.T) {
	boom := errors.New("upstream 500")
	responder := &stubResponder{err: boom}
	sender := &stubSender{}
	chat := NewChat(responder, sender, testLogger())

	_, err := chat.Run(context.Background(), domain.InboundMessage{Channel: "telegram", ChatID: "42"})
	if !errors.Is(err, boom) {
		t.Fatalf("want wrapped generation error, got %v", err)
	}
	if sender.calls != 0 {
		t.Errorf("sender must not run when generation fails")
	}
}

func TestChatRunDeliveryAlwaysFollowsGeneration(t *testing.T) {
	// Even an empty reply goes to the sender; skipping the second step is
	// the generation-failure path only.
	responder := &stubResponder{text: ""}
	sender := &stubSender{}
	chat := NewChat(responder, sender, testLogger())

	if _, err := chat.Run(context.Background(), domain.InboundMessage{Channel: "cli", ChatID: "x"}); err != nil {
		t.Fatal(err)
	}
	if sender.calls != 1 {
		t.Errorf("sender called %d times, want 1", sender.calls)
	}
}

func TestRunnerProcessesPublishedMessages(t *testing.T) {
	responder := &stubResponder{text: "ok"}
	sender := &stubSender{}
	chat := NewChat(responder, sender, testLogger())

	b := bus.New(8, testLogger())
	runner := NewRunner(chat, b, testLogger(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Run(ctx)
		close(done)
	}()

	b.Publish(domain.InboundMessage{Channel: "telegram", ChatID: "1", Content: "hi"})
	b.Publish(domain.InboundMessage{Channel: "telegram", ChatID: "2", Content: "yo"})

	deadline := time.After(2 * time.Second)
	for sender.sent() < 2 {
		select {
		case <-deadline:
			t.Fatalf("sender called %d times, want 2", sender.sent())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop on cancel")
	}
}
