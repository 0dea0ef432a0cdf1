package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"BOT_TOKEN", "GAS_WEBAPP_URL", "API_TOKEN", "ADMIN_IDS", "ADMIN_ALERTS_CHAT_ID", "TZ", "REDIS_ADDR"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
telegram:
  bot_token: "123456:ABCDEFGHIJ"
backend:
  url: "https://script.example.com/exec"
  token: "secret"
admins:
  ids: [1001, 1002]
  alerts_chat_id: -100500
notifications:
  aggregate_window: 5m
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Telegram.BotToken != "123456:ABCDEFGHIJ" {
		t.Errorf("expected bot token from yaml, got %s", cfg.Telegram.BotToken)
	}
	if len(cfg.Admins.IDs) != 2 || !cfg.IsAdmin(1002) {
		t.Errorf("expected admins 1001 and 1002, got %v", cfg.Admins.IDs)
	}
	if cfg.Notifications.AggregateWindow != 5*time.Minute {
		t.Errorf("expected aggregate window 5m, got %s", cfg.Notifications.AggregateWindow)
	}
	if cfg.Location().String() != DefaultTimezone {
		t.Errorf("expected default timezone, got %s", cfg.Location())
	}
}

func TestLoadConfigFromEnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "42:secret-token-value")
	t.Setenv("GAS_WEBAPP_URL", "https://script.example.com/exec")
	t.Setenv("API_TOKEN", "api")
	t.Setenv("ADMIN_IDS", "7; 8,9")
	t.Setenv("TZ", "Asia/Yekaterinburg")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Admins.IDs) != 3 || cfg.Admins.IDs[2] != 9 {
		t.Errorf("unexpected admin ids %v", cfg.Admins.IDs)
	}
	if cfg.Location().String() != "Asia/Yekaterinburg" {
		t.Errorf("expected TZ override, got %s", cfg.Location())
	}
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	clearEnv(t)
	t.Setenv("COWORK_BACKEND_TOKEN", "expanded")
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
telegram:
  bot_token: "123456:ABCDEFGHIJ"
backend:
  url: "https://script.example.com/exec"
  token: "${COWORK_BACKEND_TOKEN}"
admins:
  ids: [1]
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Backend.Token != "expanded" {
		t.Errorf("expected expanded token, got %q", cfg.Backend.Token)
	}
}

func TestLoadConfigInvalidAdminIDs(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_IDS", "1,abc")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for non-numeric admin id")
	}
}

func validConfig() Config {
	return Config{
		Telegram: TelegramConfig{BotToken: "123456:ABCDEFGHIJ"},
		Backend:  BackendConfig{URL: "https://script.example.com/exec", Token: "secret"},
		Admins:   AdminsConfig{IDs: []int64{1}},
		Timezone: DefaultTimezone,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Telegram.BotToken = "" },
			wantErr: true,
		},
		{
			name:    "token without colon",
			mutate:  func(c *Config) { c.Telegram.BotToken = "12345678901234" },
			wantErr: true,
		},
		{
			name:    "token too short",
			mutate:  func(c *Config) { c.Telegram.BotToken = "1:abc" },
			wantErr: true,
		},
		{
			name:    "missing backend url",
			mutate:  func(c *Config) { c.Backend.URL = "" },
			wantErr: true,
		},
		{
			name:    "missing backend token",
			mutate:  func(c *Config) { c.Backend.Token = "" },
			wantErr: true,
		},
		{
			name:    "no admins",
			mutate:  func(c *Config) { c.Admins.IDs = nil },
			wantErr: true,
		},
		{
			name:    "bad digest time",
			mutate:  func(c *Config) { c.Bot.DigestTime = "9am" },
			wantErr: true,
		},
		{
			name:    "digest time",
			mutate:  func(c *Config) { c.Bot.DigestTime = "09:30" },
			wantErr: false,
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.Timezone = "Mars/Olympus" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateListsEveryProblem(t *testing.T) {
	cfg := Config{Timezone: DefaultTimezone}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"BOT_TOKEN", "GAS_WEBAPP_URL", "API_TOKEN", "ADMIN_IDS"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %s in %q", want, err.Error())
		}
	}
}

func TestParseAdminIDs(t *testing.T) {
	ids, err := ParseAdminIDs(" 1, 2;3 ;; ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Errorf("unexpected ids %v", ids)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Timezone != DefaultTimezone {
		t.Errorf("expected default timezone %s, got %s", DefaultTimezone, cfg.Timezone)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("expected default backend timeout 10s, got %s", cfg.Backend.Timeout)
	}
	if cfg.Notifications.AggregateEvery != 5 {
		t.Errorf("expected aggregate every 5, got %d", cfg.Notifications.AggregateEvery)
	}
	if cfg.Content.CacheTTL != time.Minute {
		t.Errorf("expected content cache ttl 1m, got %s", cfg.Content.CacheTTL)
	}
	if cfg.Bot.MyBookingsLimit != 10 {
		t.Errorf("expected my bookings limit 10, got %d", cfg.Bot.MyBookingsLimit)
	}
}
