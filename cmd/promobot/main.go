package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"promobot/internal/agent"
	"promobot/internal/bus"
	"promobot/internal/channel"
	"promobot/internal/config"
	"promobot/internal/domain"
	"promobot/internal/memory"
	"promobot/internal/provider"
	"promobot/internal/tool"
	"promobot/internal/workflow"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "promobot",
		Short: "PromoBot: conversational assistant for affiliate marketers",
		Long:  "PromoBot answers product, content, link, analytics and alert questions over Telegram, Slack, CLI and HTTP.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.promobot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(gatewayCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(configCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("promobot v" + version)
		},
	}
}

// buildAgent wires provider, memory, tools and sessions into one agent.
// The returned closer releases the memory store.
func buildAgent(ctx context.Context, cfg *config.Config) (*agent.Agent, func(), error) {
	provFactory := provider.NewFactory(cfg, logger)
	prov, err := provFactory.DefaultProvider()
	if err != nil {
		return nil, nil, fmt.Errorf("provider: %w", err)
	}
	if err := prov.Healthy(ctx); err != nil {
		logger.Warn("default provider unhealthy at startup", "provider", prov.Name(), "err", err)
	} else {
		logger.Info("provider healthy", "provider", prov.Name())
	}

	var sessions *agent.SessionManager
	closer := func() {}
	if cfg.Memory.Enabled {
		memStore, err := memory.NewSQLiteStore(cfg.Memory.DBPath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("memory store: %w", err)
		}
		sessions = agent.NewSessionManager(memStore, logger)
		closer = func() { memStore.Close() }

		if cfg.Memory.RetentionDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -cfg.Memory.RetentionDays)
			if _, err := memStore.PruneBefore(ctx, cutoff); err != nil {
				logger.Warn("thread pruning failed", "err", err)
			}
		}
	}

	a := agent.New(agent.Config{
		Provider:     prov,
		Sessions:     sessions,
		Prompt:       agent.NewPromptBuilder(""),
		Tools:        registerTools(),
		Logger:       logger,
		MaxSteps:     cfg.General.MaxSteps,
		HistoryLimit: cfg.Memory.MaxHistoryPerThread,
	})
	return a, closer, nil
}

// registerTools creates and registers all tools with the registry.
func registerTools() *tool.Registry {
	toolReg := tool.NewRegistry(logger)
	toolReg.Register(tool.NewProductSearchTool())
	toolReg.Register(tool.NewContentTool())
	toolReg.Register(tool.NewLinkTool())
	toolReg.Register(tool.NewAnalyticsTool())
	toolReg.Register(tool.NewAlertsTool())
	return toolReg
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start interactive chat (CLI)",
		RunE:  runChat,
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, closeAgent, err := buildAgent(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeAgent()

	cliCh := channel.NewCLI(channel.CLIConfig{Responder: a, Logger: logger})
	return cliCh.Start(ctx, nil)
}

func gatewayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gateway",
		Short: "Start gateway (channels + chat workflow + API)",
		Long:  "Starts all enabled channels, the chat workflow runner, and the HTTP API. Press Ctrl+C to stop.",
		RunE:  runGateway,
	}
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageBus := bus.New(100, logger)

	a, closeAgent, err := buildAgent(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeAgent()

	// Replies route back to whichever channel the message came from.
	senders := channel.NewSenders()
	chat := workflow.NewChat(a, senders, logger)
	runner := workflow.NewRunner(chat, messageBus, logger, cfg.General.MaxConcurrentMessages)
	go runner.Run(ctx)

	var channels []domain.Channel

	var telegramCh *channel.Telegram
	if cfg.Channels.Telegram.Enabled && cfg.Channels.Telegram.Token != "" {
		telegramCh = channel.NewTelegram(channel.TelegramConfig{
			Token:      cfg.Channels.Telegram.Token,
			WebhookURL: cfg.Channels.Telegram.WebhookURL,
			ListenAddr: cfg.Channels.Telegram.ListenAddr,
			AllowFrom:  cfg.Channels.Telegram.AllowFrom,
			ParseMode:  cfg.Channels.Telegram.ParseMode,
			Logger:     logger,
		})
		senders.Register("telegram", telegramCh)
		channels = append(channels, telegramCh)
		logger.Info("telegram channel enabled")
	} else {
		logger.Info("telegram channel disabled")
	}

	var slackCh *channel.Slack
	if cfg.Channels.Slack.Enabled {
		slackCh = channel.NewSlack(channel.SlackConfig{
			BotToken: cfg.Channels.Slack.BotToken,
			AppToken: cfg.Channels.Slack.AppToken,
			Logger:   logger,
		})
		senders.Register("slack", slackCh)
		channels = append(channels, slackCh)
		logger.Info("slack channel enabled")
	}

	var apiCh *channel.APIServer
	if cfg.API.Enabled {
		apiCh = channel.NewAPIServer(channel.APIConfig{
			Host:   cfg.API.Host,
			Port:   cfg.API.Port,
			APIKey: cfg.API.APIKey,
			Logger: logger,
		}, a)
		channels = append(channels, apiCh)
	}

	for _, ch := range channels {
		go func(ch domain.Channel) {
			if err := ch.Start(ctx, messageBus); err != nil {
				logger.Error("channel error", "channel", ch.Name(), "err", err)
			}
		}(ch)
	}

	logger.Info("gateway started. Press Ctrl+C to stop.")

	<-ctx.Done()
	logger.Info("shutting down gateway...")

	const shutdownTimeout = 10 * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, ch := range channels {
			if err := ch.Stop(); err != nil {
				logger.Warn("channel stop failed", "channel", ch.Name(), "err", err)
			}
		}
		messageBus.Close()
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
		return nil
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out, forcing exit")
		return fmt.Errorf("shutdown timed out")
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show system status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false)
				cfg = config.Defaults()
			} else {
				logger.Info("config", "path", cfgPath, "loaded", true)
			}
			ctx := context.Background()
			factory := provider.NewFactory(cfg, logger)
			prov := factory.HealthyProvider(ctx)
			if prov != nil {
				logger.Info("provider", "name", prov.Name(), "healthy", true)
			} else {
				logger.Info("provider", "healthy", false)
			}
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. general.defaultProvider)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. general.maxSteps 8)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			sanitized := config.Sanitize(cfg)
			data, _ := json.MarshalIndent(sanitized, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
