package agent

import (
	"fmt"
	"time"

	"promobot/internal/domain"
)

// PromptBuilder assembles the system prompt and the full message list for
// one LLM call.
type PromptBuilder struct {
	extra string // custom text appended to the system prompt
}

func NewPromptBuilder(extra string) *PromptBuilder {
	return &PromptBuilder{extra: extra}
}

func (p *PromptBuilder) BuildSystemPrompt(channel, chatID string) string {
	now := time.Now().Format("2006-01-02 15:04 (Monday)")

	identity := fmt.Sprintf(`# PromoBot

You are PromoBot, an assistant for affiliate marketers. You help users find
products to promote, draft promotional content, create tracked affiliate
links, read performance analytics, and review stock/price/performance alerts.

## Current Time
%s

## Session
Channel: %s | Chat ID: %s

## RULES
1. When the user asks about products, content, links, analytics or alerts, ALWAYS use the matching tool. Never invent numbers or links.
2. When drafting content that promotes a product, create the affiliate link first and include it in the draft unchanged.
3. Do NOT output raw JSON in your response. Use the tool calling mechanism.
4. After tool execution, present results clearly. Do not mention tool names to the user.
5. Respond in the same language the user writes in.
6. Be helpful, accurate, and concise.`, now, channel, chatID)

	if p.extra != "" {
		identity += "\n\n## Custom Instructions\n" + p.extra
	}
	return identity
}

// BuildMessages constructs [system + history + user message] for an LLM call.
func (p *PromptBuilder) BuildMessages(history []domain.Message, currentMessage, channel, chatID string) []domain.Message {
	messages := make([]domain.Message, 0, len(history)+2)
	messages = append(messages, domain.Message{Role: "system", Content: p.BuildSystemPrompt(channel, chatID)})

	for _, m := range history {
		msg := domain.Message{
			Role:    m.Role,
			Content: m.Content,
		}
		if m.ToolCallID != "" {
			msg.ToolCallID = m.ToolCallID
			msg.ToolName = m.ToolName
		}
		if len(m.ToolCalls) > 0 {
			msg.ToolCalls = m.ToolCalls
		}
		messages = append(messages, msg)
	}

	messages = append(messages, domain.Message{Role: "user", Content: currentMessage})
	return messages
}
