package domain

import "time"

// InboundMessage is one user utterance extracted from a channel event.
type InboundMessage struct {
	Channel   string
	ChatID    string
	SenderID  string
	MessageID string // platform message ID, used for reply threading
	ThreadID  string // conversation key; empty means derive from channel:chatID
	Content   string
	Timestamp time.Time
}

// Thread returns the conversation key for this message.
func (m InboundMessage) Thread() string {
	if m.ThreadID != "" {
		return m.ThreadID
	}
	return m.Channel + ":" + m.ChatID
}

// Reply is one assistant reply addressed to the originating chat.
type Reply struct {
	Channel          string
	ChatID           string
	Text             string
	ReplyToMessageID string // optional: platform message to reply to
}
