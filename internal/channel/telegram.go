package channel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"promobot/internal/domain"
)

const telegramMaxMsgLen = 4000

// Telegram implements domain.Channel and domain.ReplySender for the
// Telegram Bot API. With a webhook URL configured it serves updates over
// HTTP; otherwise it falls back to long polling.
type Telegram struct {
	token      string
	webhookURL string
	listenAddr string
	allowFrom  []int64 // allowed user IDs (empty = allow all)
	parseMode  string

	bot    *tgbotapi.BotAPI
	bus    domain.MessageBus
	srv    *http.Server
	logger *slog.Logger
}

type TelegramConfig struct {
	Token      string
	WebhookURL string
	ListenAddr string
	AllowFrom  []string // user IDs as strings
	ParseMode  string
	Logger     *slog.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	var allowed []int64
	for _, s := range cfg.AllowFrom {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			allowed = append(allowed, id)
		}
	}
	if cfg.ParseMode == "" {
		cfg.ParseMode = "Markdown"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8443"
	}
	return &Telegram{
		token:      cfg.Token,
		webhookURL: cfg.WebhookURL,
		listenAddr: cfg.ListenAddr,
		allowFrom:  allowed,
		parseMode:  cfg.ParseMode,
		logger:     cfg.Logger,
	}
}

func (t *Telegram) Name() string { return "telegram" }

// Start connects to Telegram and begins receiving updates.
func (t *Telegram) Start(ctx context.Context, bus domain.MessageBus) error {
	t.bus = bus

	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = bot
	t.logger.Info("telegram bot connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)

	var updates tgbotapi.UpdatesChannel
	if t.webhookURL != "" {
		updates, err = t.startWebhook()
		if err != nil {
			return err
		}
	} else {
		// Polling requires no registered webhook.
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			t.logger.Warn("failed to delete stale webhook", "err", err)
		}
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updates = bot.GetUpdatesChan(u)
		t.logger.Info("telegram polling started")
	}

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram channel stopping")
			if t.webhookURL == "" {
				bot.StopReceivingUpdates()
			}
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(update)
		}
	}
}

func (t *Telegram) startWebhook() (tgbotapi.UpdatesChannel, error) {
	wh, err := tgbotapi.NewWebhook(t.webhookURL)
	if err != nil {
		return nil, fmt.Errorf("telegram webhook config: %w", err)
	}
	if _, err := t.bot.Request(wh); err != nil {
		return nil, fmt.Errorf("telegram webhook register: %w", err)
	}

	updates := t.bot.ListenForWebhook("/" + t.bot.Token)

	t.srv = &http.Server{Addr: t.listenAddr}
	go func() {
		if err := t.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.logger.Error("telegram webhook server failed", "err", err)
		}
	}()

	t.logger.Info("telegram webhook registered",
		"url", t.webhookURL,
		"listen", t.listenAddr,
	)
	return updates, nil
}

// Stop shuts down the webhook server if one is running. The polling loop
// stops when Start's context is cancelled.
func (t *Telegram) Stop() error {
	if t.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.srv.Shutdown(ctx)
	}
	return nil
}

func (t *Telegram) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	if !t.isAllowed(userID) {
		t.logger.Warn("unauthorized telegram user",
			"user_id", userID,
			"username", update.Message.From.UserName,
		)
		t.sendPlain(chatID, "Unauthorized. Your user ID is not in the allow list.")
		return
	}

	text := strings.TrimSpace(update.Message.Text)
	if text == "" {
		return
	}

	t.logger.Info("telegram message received",
		"user_id", userID,
		"chat_id", chatID,
		"text_len", len(text),
	)

	// Show "typing..." while the reply is generated.
	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	_, _ = t.bot.Request(typing)

	t.bus.Publish(domain.InboundMessage{
		Channel:   "telegram",
		ChatID:    strconv.FormatInt(chatID, 10),
		SenderID:  strconv.FormatInt(userID, 10),
		MessageID: strconv.Itoa(update.Message.MessageID),
		Content:   text,
		Timestamp: time.Unix(int64(update.Message.Date), 0),
	})
}

func (t *Telegram) isAllowed(userID int64) bool {
	if len(t.allowFrom) == 0 {
		return true
	}
	for _, id := range t.allowFrom {
		if id == userID {
			return true
		}
	}
	return false
}

// SendReply delivers one reply. Each chunk is sent exactly once; any send
// failure is returned to the caller rather than retried here.
func (t *Telegram) SendReply(ctx context.Context, reply domain.Reply) error {
	chatID, err := strconv.ParseInt(reply.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID %q: %w", reply.ChatID, err)
	}

	text := reply.Text
	first := true
	for len(text) > 0 {
		chunk := text
		if len(chunk) > telegramMaxMsgLen {
			cutAt := strings.LastIndex(chunk[:telegramMaxMsgLen], "\n")
			if cutAt < telegramMaxMsgLen/2 {
				cutAt = telegramMaxMsgLen
			}
			chunk = text[:cutAt]
			text = text[cutAt:]
		} else {
			text = ""
		}

		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = t.parseMode
		if first && reply.ReplyToMessageID != "" {
			if mid, err := strconv.Atoi(reply.ReplyToMessageID); err == nil {
				msg.ReplyToMessageID = mid
			}
		}
		first = false

		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}

func (t *Telegram) sendPlain(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Warn("telegram notice send failed", "err", err)
	}
}
