package workflow

import (
	"context"
	"log/slog"

	"promobot/internal/domain"
	"promobot/internal/metrics"
)

const defaultConcurrency = 3

// Runner consumes inbound messages from the bus and runs the chat workflow
// on each with bounded concurrency.
type Runner struct {
	chat        *Chat
	bus         domain.MessageBus
	logger      *slog.Logger
	concurrency int
}

func NewRunner(chat *Chat, bus domain.MessageBus, logger *slog.Logger, concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Runner{chat: chat, bus: bus, logger: logger, concurrency: concurrency}
}

// Run blocks until ctx is cancelled or the bus closes.
func (r *Runner) Run(ctx context.Context) {
	r.logger.Info("chat workflow runner started", "concurrency", r.concurrency)

	sem := make(chan struct{}, r.concurrency)
	inbound := r.bus.Subscribe()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("chat workflow runner stopping")
			return
		case msg, ok := <-inbound:
			if !ok {
				r.logger.Info("inbound channel closed, runner stopping")
				return
			}
			sem <- struct{}{}
			go func(m domain.InboundMessage) {
				defer func() { <-sem }()
				r.process(ctx, m)
			}(msg)
		}
	}
}

func (r *Runner) process(ctx context.Context, msg domain.InboundMessage) {
	metrics.MessagesTotal.Inc()
	r.logger.Info("processing message",
		"channel", msg.Channel,
		"sender", msg.SenderID,
		"content_len", len(msg.Content),
	)

	res, err := r.chat.Run(ctx, msg)
	if err != nil {
		r.logger.Error("chat workflow failed", "channel", msg.Channel, "chat", msg.ChatID, "err", err)
		return
	}
	if !res.Sent {
		r.logger.Warn("reply generated but not delivered", "channel", msg.Channel, "chat", msg.ChatID)
	}
}
