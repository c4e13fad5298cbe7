package domain

import "context"

// MessageBus queues inbound messages between channels and the chat workflow.
type MessageBus interface {
	Publish(msg InboundMessage)
	Subscribe() <-chan InboundMessage
	Close()
}

// ReplySender delivers one assistant reply to the originating chat.
// Implementations make a single outbound call; they do not retry.
type ReplySender interface {
	SendReply(ctx context.Context, reply Reply) error
}
