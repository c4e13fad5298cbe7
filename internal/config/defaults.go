package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:              "info",
			DefaultProvider:       "openai",
			MaxSteps:              5,
			MaxConcurrentMessages: 5,
		},
		Providers: map[string]ProviderConfig{
			"openai": {
				Enabled:      true,
				APIBase:      "https://api.openai.com/v1",
				APIKey:       "${OPENAI_API_KEY}",
				DefaultModel: "gpt-4o-mini",
			},
			"claude": {
				Enabled:      false,
				APIKey:       "${ANTHROPIC_API_KEY}",
				DefaultModel: "claude-3-5-haiku-20241022",
			},
			"ollama": {
				Enabled:      false,
				APIBase:      "http://localhost:11434",
				DefaultModel: "llama3.1:8b",
			},
		},
		Channels: ChannelsConfig{
			Telegram: TelegramConfig{
				Enabled:    false,
				ListenAddr: ":8443",
				ParseMode:  "Markdown",
			},
			Slack: SlackConfig{
				Enabled: false,
			},
			CLI: CLIConfig{
				Enabled: true,
			},
		},
		Memory: MemoryConfig{
			Enabled:             true,
			DBPath:              "~/.promobot/memory.db",
			MaxHistoryPerThread: 50,
			RetentionDays:       90,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    4111,
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Endpoint: "/metrics",
		},
	}
}
