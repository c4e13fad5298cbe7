package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"promobot/internal/domain"
	"promobot/internal/metrics"
)

// Responder produces the assistant reply text for one inbound message.
type Responder interface {
	Respond(ctx context.Context, msg domain.InboundMessage) (string, error)
}

// Result is the outcome of one chat workflow run. Text is always the agent's
// reply; Sent records whether delivery back to the chat succeeded.
type Result struct {
	Text string
	Sent bool
}

// Chat is the two-step message workflow: generate a reply, then deliver it.
// A generation failure aborts the run; a delivery failure does not — the
// reply is preserved in the result with Sent=false.
type Chat struct {
	responder Responder
	sender    domain.ReplySender
	logger    *slog.Logger
}

func NewChat(responder Responder, sender domain.ReplySender, logger *slog.Logger) *Chat {
	return &Chat{responder: responder, sender: sender, logger: logger}
}

func (c *Chat) Run(ctx context.Context, msg domain.InboundMessage) (Result, error) {
	text, err := c.responder.Respond(ctx, msg)
	if err != nil {
		return Result{}, fmt.Errorf("use-agent: %w", err)
	}

	res := Result{Text: text}
	reply := domain.Reply{
		Channel:          msg.Channel,
		ChatID:           msg.ChatID,
		Text:             text,
		ReplyToMessageID: msg.MessageID,
	}
	if err := c.sender.SendReply(ctx, reply); err != nil {
		// Delivery is best-effort: log and count, keep the text.
		c.logger.Warn("reply delivery failed",
			"channel", msg.Channel,
			"chat", msg.ChatID,
			"err", err,
		)
		metrics.ReplyFailures.Inc()
		return res, nil
	}

	res.Sent = true
	metrics.RepliesSent.Inc()
	return res, nil
}
