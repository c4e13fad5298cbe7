package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PROMOBOT_TEST_TOKEN", "tok-123")
	os.Unsetenv("PROMOBOT_TEST_UNSET")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set var", "${PROMOBOT_TEST_TOKEN}", "tok-123"},
		{"set var beats default", "${PROMOBOT_TEST_TOKEN:-fallback}", "tok-123"},
		{"unset var with default", "${PROMOBOT_TEST_UNSET:-fallback}", "fallback"},
		{"unset var without default kept", "${PROMOBOT_TEST_UNSET}", "${PROMOBOT_TEST_UNSET}"},
		{"inline", "key=${PROMOBOT_TEST_TOKEN};", "key=tok-123;"},
		{"no vars", "plain text", "plain text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnvVars(tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadAppliesDefaultsAndExpansion(t *testing.T) {
	t.Setenv("PROMOBOT_TEST_TG", "tg-token")

	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{
		"channels": {
			"telegram": {"enabled": true, "token": "${PROMOBOT_TEST_TG}", "allowFrom": ["123", 456]}
		}
	}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Channels.Telegram.Token != "tg-token" {
		t.Errorf("token = %q", cfg.Channels.Telegram.Token)
	}
	if got := []string(cfg.Channels.Telegram.AllowFrom); len(got) != 2 || got[0] != "123" || got[1] != "456" {
		t.Errorf("allowFrom = %v", got)
	}
	// untouched sections keep their defaults
	if cfg.General.MaxSteps != Defaults().General.MaxSteps {
		t.Errorf("defaults not applied: maxSteps = %d", cfg.General.MaxSteps)
	}
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	if err := Validate(valid); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"maxSteps too high", func(c *Config) { c.General.MaxSteps = 99 }, "maxSteps"},
		{"maxSteps zero", func(c *Config) { c.General.MaxSteps = 0 }, "maxSteps"},
		{"bad port", func(c *Config) { c.API.Port = 70000 }, "api.port"},
		{"telegram without token", func(c *Config) {
			c.Channels.Telegram.Enabled = true
			c.Channels.Telegram.Token = ""
		}, "telegram.token"},
		{"provider without key", func(c *Config) {
			c.Providers["openai"] = ProviderConfig{Enabled: true}
		}, "apiKey"},
		{"retention zero", func(c *Config) { c.Memory.RetentionDays = 0 }, "retentionDays"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("want validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Defaults()
	cfg.General.MaxSteps = 7
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.General.MaxSteps != 7 {
		t.Errorf("maxSteps = %d, want 7", loaded.General.MaxSteps)
	}
}

func TestGetSetByPath(t *testing.T) {
	cfg := Defaults()

	if err := SetByPath(cfg, "general.maxSteps", "9"); err != nil {
		t.Fatal(err)
	}
	if cfg.General.MaxSteps != 9 {
		t.Errorf("maxSteps = %d, want 9", cfg.General.MaxSteps)
	}

	v, err := GetByPath(cfg, "general.maxSteps")
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := v.(float64); !ok || n != 9 {
		t.Errorf("GetByPath = %v (%T)", v, v)
	}

	if _, err := GetByPath(cfg, "no.such.path"); err == nil {
		t.Error("want error for unknown path")
	}
}

func TestSanitizeMasksSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Providers["openai"] = ProviderConfig{Enabled: true, APIKey: "sk-verysecretkey123456"}
	cfg.Channels.Telegram.Token = "123456:ABCDEF-telegram-token"
	cfg.API.APIKey = "api-secret-key-value"

	clean := Sanitize(cfg)

	if clean.Providers["openai"].APIKey == cfg.Providers["openai"].APIKey {
		t.Error("provider key not masked")
	}
	if clean.Channels.Telegram.Token == cfg.Channels.Telegram.Token {
		t.Error("telegram token not masked")
	}
	if clean.API.APIKey == cfg.API.APIKey {
		t.Error("api key not masked")
	}
	// The original must be untouched.
	if cfg.Providers["openai"].APIKey != "sk-verysecretkey123456" {
		t.Error("Sanitize mutated the original config")
	}

	// Masked values stay JSON-serializable.
	if _, err := json.Marshal(clean); err != nil {
		t.Fatal(err)
	}
}

func TestFlexStringList(t *testing.T) {
	var f FlexStringList
	if err := json.Unmarshal([]byte(`["a", 12, "c"]`), &f); err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "12", "c"}
	if len(f) != len(want) {
		t.Fatalf("got %v", f)
	}
	for i := range want {
		if f[i] != want[i] {
			t.Errorf("f[%d] = %q, want %q", i, f[i], want[i])
		}
	}
}
