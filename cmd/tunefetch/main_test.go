package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"tunefetch/internal/core"
)

func validConfig() *core.Config {
	cfg := core.DefaultConfig()
	cfg.Telegram.BotToken = "123:abc"
	return cfg
}

func TestValidateConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mutate  func(*core.Config)
		wantErr string
	}{
		{
			name:   "Polling defaults",
			mutate: func(*core.Config) {},
		},
		{
			name:    "Missing token",
			mutate:  func(c *core.Config) { c.Telegram.BotToken = "" },
			wantErr: "bot token",
		},
		{
			name:    "Webhook without URL",
			mutate:  func(c *core.Config) { c.Telegram.DeliveryMode = core.DeliveryModeWebhook },
			wantErr: "webhook public URL",
		},
		{
			name: "Webhook with URL",
			mutate: func(c *core.Config) {
				c.Telegram.DeliveryMode = core.DeliveryModeWebhook
				c.Telegram.WebhookURL = "https://bot.example.com"
			},
		},
		{
			name:    "Unknown delivery mode",
			mutate:  func(c *core.Config) { c.Telegram.DeliveryMode = "carrier-pigeon" },
			wantErr: "unknown delivery mode",
		},
		{
			name:    "Invalid port",
			mutate:  func(c *core.Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "Temp dir is a file",
			mutate:  func(c *core.Config) { c.Resolver.TempDir = file },
			wantErr: "not a directory",
		},
		{
			name:    "Temp dir missing",
			mutate:  func(c *core.Config) { c.Resolver.TempDir = filepath.Join(t.TempDir(), "missing") },
			wantErr: "not accessible",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validateConfig() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validateConfig() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestFlagToEnvVar(t *testing.T) {
	tests := map[string]string{
		"telegram-bot-token":   "TUNEFETCH_TELEGRAM_BOT_TOKEN",
		"resolve-timeout-secs": "TUNEFETCH_RESOLVE_TIMEOUT_SECS",
		"language":             "TUNEFETCH_LANGUAGE",
	}
	for flag, expected := range tests {
		if got := flagToEnvVar(flag); got != expected {
			t.Errorf("flagToEnvVar(%q) = %q, want %q", flag, got, expected)
		}
	}
}

func TestGenerateEnvExampleContent(t *testing.T) {
	content := generateEnvExampleContent(rootCmd)

	for _, flag := range []string{
		"telegram-bot-token", "delivery-mode", "webhook-public-url", "webhook-secret",
		"temp-dir", "resolve-timeout-secs", "ytdlp-path", "ytdlp-install",
		"language", "server-host", "server-port", "log-level",
	} {
		if !strings.Contains(content, flagToEnvVar(flag)) {
			t.Errorf("env example is missing %s", flagToEnvVar(flag))
		}
	}

	if !strings.Contains(content, "TUNEFETCH_RESOLVE_TIMEOUT_SECS=300") {
		t.Error("env example should carry the default resolve timeout")
	}
}

func TestBuildLogger(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
	}
	for level, expected := range tests {
		l := buildLogger(level)
		if !l.Core().Enabled(expected) {
			t.Errorf("buildLogger(%q) should enable %v", level, expected)
		}
		if expected > zapcore.DebugLevel && l.Core().Enabled(expected-1) {
			t.Errorf("buildLogger(%q) should not enable %v", level, expected-1)
		}
	}
}

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("log-level", "debug")
	viper.Set("server-port", 9090)
	cfg := core.DefaultConfig()
	configureServer(cfg)
	if cfg.Log.Level != core.DefaultLogLevel {
		t.Errorf("configureServer should leave the log level alone, got %q", cfg.Log.Level)
	}
	configureLogging(cfg)
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.Log.Level)
	}

	viper.Set("log-level", "")
	configureLogging(cfg)
	if cfg.Log.Level != core.DefaultLogLevel {
		t.Errorf("empty log level should fall back to %q, got %q", core.DefaultLogLevel, cfg.Log.Level)
	}
}
