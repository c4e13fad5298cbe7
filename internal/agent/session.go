package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"promobot/internal/domain"
)

const defaultThreadTitle = "New conversation"

// SessionManager maps conversation keys to persisted threads and converts
// between storage records and provider messages.
type SessionManager struct {
	store  domain.MemoryStore
	logger *slog.Logger
	mu     sync.Mutex
}

func NewSessionManager(store domain.MemoryStore, logger *slog.Logger) *SessionManager {
	return &SessionManager{store: store, logger: logger}
}

// GetOrCreateThread returns the thread id for a conversation key, creating
// the thread on first contact.
func (sm *SessionManager) GetOrCreateThread(ctx context.Context, threadID, resourceID, provider, model string) (string, error) {
	th, err := sm.store.GetThread(ctx, threadID)
	if err != nil {
		return "", err
	}
	if th != nil {
		return th.ID, nil
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	// Double-check under the lock; two messages can race on first contact.
	th, err = sm.store.GetThread(ctx, threadID)
	if err != nil {
		return "", err
	}
	if th != nil {
		return th.ID, nil
	}

	newThread := domain.Thread{
		ID:         threadID,
		ResourceID: resourceID,
		Title:      defaultThreadTitle,
		Provider:   provider,
		Model:      model,
	}
	if err := sm.store.CreateThread(ctx, newThread); err != nil {
		return "", err
	}

	sm.logger.Info("created new thread",
		"thread", threadID,
		"resource", resourceID,
		"provider", provider,
	)
	return threadID, nil
}

func (sm *SessionManager) GetHistory(ctx context.Context, threadID string, limit int) ([]domain.Message, error) {
	records, err := sm.store.GetMessages(ctx, threadID, limit)
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(records))
	for _, r := range records {
		msg := domain.Message{
			Role:       r.Role,
			Content:    r.Content,
			ToolCallID: r.ToolCallID,
			ToolName:   r.ToolName,
		}
		if r.ToolCalls != "" {
			var toolCalls []domain.ToolCall
			if err := json.Unmarshal([]byte(r.ToolCalls), &toolCalls); err == nil {
				msg.ToolCalls = toolCalls
			}
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (sm *SessionManager) SaveMessage(ctx context.Context, threadID string, msg domain.Message) error {
	record := domain.MessageRecord{
		ThreadID:   threadID,
		Role:       msg.Role,
		Content:    msg.Content,
		ToolCallID: msg.ToolCallID,
		ToolName:   msg.ToolName,
	}
	if len(msg.ToolCalls) > 0 {
		if data, err := json.Marshal(msg.ToolCalls); err == nil {
			record.ToolCalls = string(data)
		}
	}
	return sm.store.AddMessage(ctx, threadID, record)
}

// UpdateTitle derives a thread title from the first user message. Only the
// placeholder title is ever replaced.
func (sm *SessionManager) UpdateTitle(ctx context.Context, threadID, firstUserMsg string) {
	th, err := sm.store.GetThread(ctx, threadID)
	if err != nil || th == nil {
		return
	}
	if th.Title != "" && th.Title != defaultThreadTitle {
		return
	}
	th.Title = generateTitle(firstUserMsg)
	if err := sm.store.UpdateThread(ctx, *th); err != nil {
		sm.logger.Warn("failed to update thread title", "thread", threadID, "err", err)
	}
}

func generateTitle(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return defaultThreadTitle
	}
	if idx := strings.IndexAny(msg, "\n\r"); idx > 0 {
		msg = msg[:idx]
	}
	if len(msg) > 60 {
		cut := strings.LastIndex(msg[:60], " ")
		if cut < 20 {
			cut = 60
		}
		msg = msg[:cut] + "..."
	}
	return msg
}

// ClearThread deletes a thread and its messages, starting the conversation fresh.
func (sm *SessionManager) ClearThread(ctx context.Context, threadID string) {
	if err := sm.store.DeleteThread(ctx, threadID); err != nil {
		sm.logger.Warn("failed to clear thread", "thread", threadID, "err", err)
		return
	}
	sm.logger.Info("thread cleared", "thread", threadID)
}
