package domain

import "context"

// Channel is the interface for user-facing triggers (Telegram, Slack, CLI).
type Channel interface {
	Name() string
	Start(ctx context.Context, bus MessageBus) error
	Stop() error
}
