package domain

import "context"

// Tool is the interface for agent capabilities (product search, content
// generation, link creation, analytics, alerts).
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) (string, error)
}
