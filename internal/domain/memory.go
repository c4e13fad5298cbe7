package domain

import (
	"context"
	"time"
)

// MemoryStore handles persistent storage of conversation threads and their
// message records. Persistence is the agent memory collaborator's concern;
// the chat workflow itself keeps no state.
type MemoryStore interface {
	CreateThread(ctx context.Context, th Thread) error
	GetThread(ctx context.Context, id string) (*Thread, error)
	UpdateThread(ctx context.Context, th Thread) error
	ListThreads(ctx context.Context, limit int) ([]Thread, error)
	DeleteThread(ctx context.Context, id string) error

	AddMessage(ctx context.Context, threadID string, msg MessageRecord) error
	GetMessages(ctx context.Context, threadID string, limit int) ([]MessageRecord, error)

	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)

	Close() error
}

type Thread struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	Title      string    `json:"title"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type MessageRecord struct {
	ID         int64     `json:"id"`
	ThreadID   string    `json:"thread_id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	ToolCalls  string    `json:"tool_calls,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	ToolName   string    `json:"tool_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
