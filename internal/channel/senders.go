package channel

import (
	"context"
	"fmt"
	"sync"

	"promobot/internal/domain"
)

// Senders routes replies to the channel that received the original message.
type Senders struct {
	mu      sync.RWMutex
	senders map[string]domain.ReplySender
}

func NewSenders() *Senders {
	return &Senders{senders: make(map[string]domain.ReplySender)}
}

func (s *Senders) Register(name string, sender domain.ReplySender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.senders[name] = sender
}

func (s *Senders) SendReply(ctx context.Context, reply domain.Reply) error {
	s.mu.RLock()
	sender, ok := s.senders[reply.Channel]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no sender registered for channel %q", reply.Channel)
	}
	return sender.SendReply(ctx, reply)
}
