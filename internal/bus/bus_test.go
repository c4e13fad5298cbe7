package bus

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"promobot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishSubscribe(t *testing.T) {
	b := New(4, testLogger())
	defer b.Close()

	b.Publish(domain.InboundMessage{Channel: "telegram", ChatID: "1", Content: "hello"})

	select {
	case msg := <-b.Subscribe():
		if msg.Content != "hello" || msg.Channel != "telegram" {
			t.Errorf("got %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestPublishAfterCloseIsSafe(t *testing.T) {
	b := New(4, testLogger())
	b.Close()
	b.Close() // double close must not panic

	// Must not panic or block.
	b.Publish(domain.InboundMessage{Channel: "cli", Content: "late"})
}

func TestSubscribeClosedOnClose(t *testing.T) {
	b := New(4, testLogger())
	inbound := b.Subscribe()
	b.Close()

	select {
	case _, ok := <-inbound:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func TestEachMessageConsumedOnce(t *testing.T) {
	b := New(8, testLogger())
	defer b.Close()

	for i := 0; i < 5; i++ {
		b.Publish(domain.InboundMessage{Channel: "cli", ChatID: "x", Content: "m"})
	}

	inbound := b.Subscribe()
	count := 0
	timeout := time.After(time.Second)
	for count < 5 {
		select {
		case <-inbound:
			count++
		case <-timeout:
			t.Fatalf("got %d messages, want 5", count)
		}
	}

	select {
	case msg := <-inbound:
		t.Fatalf("unexpected extra message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
