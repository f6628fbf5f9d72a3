package core

import (
	"time"

	"tunefetch/internal/i18n"
)

// Delivery modes for receiving Telegram updates.
const (
	DeliveryModePolling = "polling"
	DeliveryModeWebhook = "webhook"
)

// Configuration defaults.
const (
	DefaultServerHost         = "0.0.0.0"
	DefaultServerPort         = 8080
	DefaultResolveTimeoutSecs = 300
	DefaultShutdownTimeout    = 30 * time.Second
	DefaultWebhookPath        = "/webhook"
	DefaultLogLevel           = "info"

	// MaxPayloadBytes is the ceiling for delivered audio (50 MiB).
	MaxPayloadBytes int64 = 50 * 1024 * 1024
)

type Config struct {
	Telegram TelegramConfig
	Resolver ResolverConfig
	Server   ServerConfig
	Log      LogConfig
	App      AppConfig
}

type TelegramConfig struct {
	BotToken      string
	APIURL        string // self-hosted Bot API server, empty for api.telegram.org
	DeliveryMode  string
	WebhookURL    string // public base URL, e.g. https://bot.example.com
	WebhookPath   string
	WebhookSecret string
}

type ResolverConfig struct {
	TempDir            string
	ResolveTimeoutSecs int
	YTDLPPath          string
	InstallYTDLP       bool
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level string
}

type AppConfig struct {
	Language string
}

func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			DeliveryMode: DeliveryModePolling,
			WebhookPath:  DefaultWebhookPath,
		},
		Resolver: ResolverConfig{
			ResolveTimeoutSecs: DefaultResolveTimeoutSecs,
		},
		Server: ServerConfig{
			Host:         DefaultServerHost,
			Port:         DefaultServerPort,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		App: AppConfig{
			Language: i18n.DefaultLanguage,
		},
	}
}

// ResolveTimeout returns the bound applied to a single resolution.
func (c *ResolverConfig) ResolveTimeout() time.Duration {
	if c.ResolveTimeoutSecs <= 0 {
		return DefaultResolveTimeoutSecs * time.Second
	}
	return time.Duration(c.ResolveTimeoutSecs) * time.Second
}
