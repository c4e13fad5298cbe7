package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"promobot/internal/domain"
	"promobot/internal/metrics"
	"promobot/internal/tool"
)

const (
	defaultMaxSteps         = 5
	defaultHistoryLimit     = 50
	defaultLLMMaxTokens     = 4096
	defaultTemperature      = 0.7
	defaultMaxParallelTools = 5
)

// Agent is the core engine: build prompt, call the LLM, execute requested
// tools, repeat until the model produces plain text or the step limit hits.
type Agent struct {
	provider     domain.Provider
	sessions     *SessionManager
	prompt       *PromptBuilder
	tools        *tool.Registry
	logger       *slog.Logger
	maxSteps     int
	historyLimit int
}

// Config holds all dependencies and tuning parameters for the agent.
type Config struct {
	Provider     domain.Provider
	Sessions     *SessionManager
	Prompt       *PromptBuilder
	Tools        *tool.Registry
	Logger       *slog.Logger
	MaxSteps     int
	HistoryLimit int // messages of thread history per LLM call
}

func New(cfg Config) *Agent {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = defaultMaxSteps
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.Prompt == nil {
		cfg.Prompt = NewPromptBuilder("")
	}
	return &Agent{
		provider:     cfg.Provider,
		sessions:     cfg.Sessions,
		prompt:       cfg.Prompt,
		tools:        cfg.Tools,
		logger:       cfg.Logger,
		maxSteps:     cfg.MaxSteps,
		historyLimit: cfg.HistoryLimit,
	}
}

// Respond handles one inbound chat message: resolve the thread, run the
// agent loop over its history, persist the new turn, return the reply text.
func (a *Agent) Respond(ctx context.Context, msg domain.InboundMessage) (string, error) {
	threadID := msg.Thread()

	var history []domain.Message
	if a.sessions != nil {
		if _, err := a.sessions.GetOrCreateThread(ctx, threadID, msg.SenderID, a.provider.Name(), ""); err != nil {
			return "", fmt.Errorf("session error: %w", err)
		}
		var err error
		history, err = a.sessions.GetHistory(ctx, threadID, a.historyLimit)
		if err != nil {
			a.logger.Warn("failed to load history, continuing without it", "err", err)
			history = nil
		}
	}

	messages := a.prompt.BuildMessages(history, msg.Content, msg.Channel, msg.ChatID)

	text, err := a.run(ctx, messages, a.maxSteps)
	if err != nil {
		return "", err
	}

	if a.sessions != nil {
		if err := a.sessions.SaveMessage(ctx, threadID, domain.Message{Role: "user", Content: msg.Content}); err != nil {
			a.logger.Warn("failed to save user message", "err", err, "thread", threadID)
		}
		if err := a.sessions.SaveMessage(ctx, threadID, domain.Message{Role: "assistant", Content: text}); err != nil {
			a.logger.Warn("failed to save assistant message", "err", err, "thread", threadID)
		}
		if len(history) == 0 {
			a.sessions.UpdateTitle(ctx, threadID, msg.Content)
		}
	}

	return text, nil
}

// GenerateRequest is a direct generation call, bypassing channels. Messages
// must end with the user turn. ThreadID is optional; when a ResourceID is
// given without a thread, an ephemeral thread is minted so the turn is
// still persisted under that resource.
type GenerateRequest struct {
	Messages   []domain.Message
	ResourceID string
	ThreadID   string
	MaxSteps   int
}

// Generate runs the agent loop over the caller-supplied messages and
// returns the final text.
func (a *Agent) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("generate: empty messages")
	}
	maxSteps := req.MaxSteps
	if maxSteps <= 0 {
		maxSteps = a.maxSteps
	}

	threadID := req.ThreadID
	if threadID == "" && req.ResourceID != "" {
		threadID = uuid.NewString()
	}

	var history []domain.Message
	if a.sessions != nil && threadID != "" {
		if _, err := a.sessions.GetOrCreateThread(ctx, threadID, req.ResourceID, a.provider.Name(), ""); err != nil {
			return "", fmt.Errorf("session error: %w", err)
		}
		var err error
		history, err = a.sessions.GetHistory(ctx, threadID, a.historyLimit)
		if err != nil {
			a.logger.Warn("failed to load history, continuing without it", "err", err)
			history = nil
		}
	}

	messages := make([]domain.Message, 0, len(history)+len(req.Messages)+1)
	messages = append(messages, domain.Message{Role: "system", Content: a.prompt.BuildSystemPrompt("api", req.ResourceID)})
	messages = append(messages, history...)
	messages = append(messages, req.Messages...)

	text, err := a.run(ctx, messages, maxSteps)
	if err != nil {
		return "", err
	}

	if a.sessions != nil && threadID != "" {
		last := req.Messages[len(req.Messages)-1]
		if err := a.sessions.SaveMessage(ctx, threadID, last); err != nil {
			a.logger.Warn("failed to save user message", "err", err, "thread", threadID)
		}
		if err := a.sessions.SaveMessage(ctx, threadID, domain.Message{Role: "assistant", Content: text}); err != nil {
			a.logger.Warn("failed to save assistant message", "err", err, "thread", threadID)
		}
		if len(history) == 0 {
			a.sessions.UpdateTitle(ctx, threadID, last.Content)
		}
	}

	return text, nil
}

// run is the main loop: call LLM, execute tools if requested, repeat.
func (a *Agent) run(ctx context.Context, messages []domain.Message, maxSteps int) (string, error) {
	metrics.AgentRequestsTotal.Inc()
	start := time.Now()
	defer func() { metrics.AgentLatency.Observe(time.Since(start).Seconds()) }()

	var toolDefs []domain.ToolDefinition
	if a.tools != nil {
		toolDefs = a.tools.GetDefinitions()
	}

	// Reused across steps; bounds parallel tool execution.
	toolSem := make(chan struct{}, defaultMaxParallelTools)

	var finalContent string
	for step := 0; step < maxSteps; step++ {
		a.logger.Debug("agent step", "step", step+1, "messages", len(messages))

		callStart := time.Now()
		resp, err := a.provider.Chat(ctx, domain.ChatRequest{
			Messages:    messages,
			Tools:       toolDefs,
			MaxTokens:   defaultLLMMaxTokens,
			Temperature: defaultTemperature,
		})
		if err != nil {
			return "", fmt.Errorf("use-agent: %w", err)
		}
		resp.LatencyMs = time.Since(callStart).Milliseconds()

		if !resp.HasToolCalls() {
			finalContent = resp.Content
			break
		}

		messages = append(messages, domain.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		// Execute tool calls in parallel, append results in call order.
		results := make([]string, len(resp.ToolCalls))
		var wg sync.WaitGroup
		for i, tc := range resp.ToolCalls {
			wg.Add(1)
			go func(idx int, tc domain.ToolCall) {
				defer wg.Done()
				toolSem <- struct{}{}
				defer func() { <-toolSem }()

				a.logger.Info("executing tool", "tool", tc.Name)
				result, toolErr := a.tools.Execute(ctx, tc.Name, tc.Arguments)
				if toolErr != nil {
					result = fmt.Sprintf("Error executing tool %s: %s", tc.Name, toolErr.Error())
				}
				results[idx] = result
			}(i, tc)
		}
		wg.Wait()

		for i, tc := range resp.ToolCalls {
			messages = append(messages, domain.Message{
				Role:       "tool",
				Content:    results[i],
				ToolCallID: tc.ID,
				ToolName:   tc.Name,
			})
		}
	}

	if finalContent == "" {
		finalContent = "I've completed processing but have no additional response."
	}
	return finalContent, nil
}
