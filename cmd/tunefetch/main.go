// Package main provides the tunefetch CLI application entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"tunefetch/internal/chat/telegram"
	"tunefetch/internal/core"
	httpserver "tunefetch/internal/http"
	"tunefetch/internal/i18n"
	"tunefetch/internal/resolver"
	"tunefetch/internal/store"
)

const envPrefix = "TUNEFETCH"

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tunefetch",
	Short: "tunefetch - Telegram song requests → mp3",
	Long: `tunefetch is a Telegram bot that takes a song title, finds the best match on YouTube,
converts its audio to mp3 and sends the file back to the chat.`,
	RunE: runTunefetch,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", core.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("telegram-bot-token", "", "Telegram bot token")
	rootCmd.PersistentFlags().String("telegram-api-url", "", "Bot API server URL (default is api.telegram.org)")
	rootCmd.PersistentFlags().String("delivery-mode", core.DeliveryModePolling,
		fmt.Sprintf("How updates are received (%s, %s)", core.DeliveryModePolling, core.DeliveryModeWebhook))
	rootCmd.PersistentFlags().String("webhook-public-url", "", "Public https base URL for webhook delivery")
	rootCmd.PersistentFlags().String("webhook-secret", "", "Webhook secret token (random if empty)")
	rootCmd.PersistentFlags().String("server-host", core.DefaultServerHost, "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", core.DefaultServerPort, "HTTP server port")
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")
	rootCmd.PersistentFlags().String("language", i18n.DefaultLanguage, fmt.Sprintf("Bot language (%s)", supportedLangs))
	rootCmd.PersistentFlags().String("temp-dir", "", "Directory for intermediate audio files (default is the system temp dir)")
	rootCmd.PersistentFlags().Int("resolve-timeout-secs", core.DefaultResolveTimeoutSecs, "Maximum time for one search and extraction")
	rootCmd.PersistentFlags().String("ytdlp-path", "", "yt-dlp executable (default is yt-dlp from PATH)")
	rootCmd.PersistentFlags().Bool("ytdlp-install", false, "Download yt-dlp at startup if it is missing")
	rootCmd.PersistentFlags().Bool("generate-env-example", false, "Generate .env.example file from current configuration and exit")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	// Load .env file explicitly using gotenv
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureTelegram(cfg)
	configureResolver(cfg)
	configureServer(cfg)
	configureLogging(cfg)
	configureApp(cfg)

	return cfg
}

func configureTelegram(cfg *core.Config) {
	cfg.Telegram.BotToken = viper.GetString("telegram-bot-token")
	cfg.Telegram.APIURL = viper.GetString("telegram-api-url")
	cfg.Telegram.DeliveryMode = strings.ToLower(viper.GetString("delivery-mode"))
	if cfg.Telegram.DeliveryMode == "" {
		cfg.Telegram.DeliveryMode = core.DeliveryModePolling
	}
	cfg.Telegram.WebhookURL = viper.GetString("webhook-public-url")
	cfg.Telegram.WebhookSecret = viper.GetString("webhook-secret")
}

func configureResolver(cfg *core.Config) {
	cfg.Resolver.TempDir = viper.GetString("temp-dir")
	cfg.Resolver.ResolveTimeoutSecs = viper.GetInt("resolve-timeout-secs")
	if cfg.Resolver.ResolveTimeoutSecs <= 0 {
		fmt.Fprintf(os.Stderr, "Warning: Invalid resolve timeout (%d), using default (%d)\n",
			cfg.Resolver.ResolveTimeoutSecs, core.DefaultResolveTimeoutSecs)
		cfg.Resolver.ResolveTimeoutSecs = core.DefaultResolveTimeoutSecs
	}
	cfg.Resolver.YTDLPPath = viper.GetString("ytdlp-path")
	cfg.Resolver.InstallYTDLP = viper.GetBool("ytdlp-install")
}

func configureServer(cfg *core.Config) {
	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = core.DefaultServerHost
	}
	cfg.Server.Port = viper.GetInt("server-port")
}

func configureLogging(cfg *core.Config) {
	cfg.Log.Level = viper.GetString("log-level")
	if cfg.Log.Level == "" {
		cfg.Log.Level = core.DefaultLogLevel
	}
}

func configureApp(cfg *core.Config) {
	cfg.App.Language = viper.GetString("language")
	if cfg.App.Language == "" {
		cfg.App.Language = i18n.DefaultLanguage
	}

	if !i18n.IsSupported(cfg.App.Language) {
		fmt.Fprintf(os.Stderr, "Warning: Unsupported language '%s', falling back to '%s'. Supported languages: %s\n",
			cfg.App.Language, i18n.DefaultLanguage, strings.Join(i18n.GetSupportedLanguages(), ", "))
		cfg.App.Language = i18n.DefaultLanguage
	}
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runTunefetch(cmd *cobra.Command, _ []string) error {
	if viper.GetBool("generate-env-example") {
		return generateEnvExample(cmd)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tunefetch",
		zap.String("delivery_mode", config.Telegram.DeliveryMode),
		zap.String("language", config.App.Language),
		zap.Int("resolve_timeout_secs", config.Resolver.ResolveTimeoutSecs))

	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	svcs, err := initializeServices(ctx)
	if err != nil {
		return err
	}

	return runServices(ctx, svcs)
}

type services struct {
	httpServer *httpserver.Server
	dispatcher *core.Dispatcher
}

func initializeServices(ctx context.Context) (*services, error) {
	if config.Resolver.InstallYTDLP && config.Resolver.YTDLPPath == "" {
		executable, err := resolver.InstallYTDLP(ctx, logger.Named("ytdlp"))
		if err != nil {
			return nil, err
		}
		config.Resolver.YTDLPPath = executable
	}

	delivery, webhook, err := createDelivery()
	if err != nil {
		return nil, err
	}

	dedup := store.NewDedupStore(store.DefaultCapacity, store.DefaultFalsePositiveRate)
	frontend := telegram.NewFrontend(&telegram.Config{
		BotToken: config.Telegram.BotToken,
		APIURL:   config.Telegram.APIURL,
	}, delivery, dedup, logger.Named("telegram"))

	catalog := resolver.NewYTDLP(config.Resolver.YTDLPPath, logger.Named("ytdlp"))
	songResolver := resolver.New(catalog, config.Resolver, logger.Named("resolver"))

	metrics := httpserver.NewMetrics()
	metrics.TrackDedupSize(dedup.Size)
	dispatcher := core.NewDispatcher(config, frontend, songResolver, metrics, logger.Named("dispatcher"))

	httpServer := httpserver.NewServer(&config.Server, metrics, dispatcher.Ready, logger.Named("http"))
	if webhook != nil {
		httpServer.Handle(webhook.Path(), webhook.Handler())
	}

	return &services{
		httpServer: httpServer,
		dispatcher: dispatcher,
	}, nil
}

// createDelivery returns the configured strategy and, for push delivery, the
// webhook whose handler the HTTP server must mount.
func createDelivery() (telegram.Delivery, *telegram.WebhookDelivery, error) {
	deliveryLogger := logger.Named("delivery")

	switch config.Telegram.DeliveryMode {
	case core.DeliveryModeWebhook:
		webhook, err := telegram.NewWebhookDelivery(config.Telegram.WebhookURL,
			config.Telegram.WebhookPath, config.Telegram.WebhookSecret, deliveryLogger)
		if err != nil {
			return nil, nil, err
		}
		return webhook, webhook, nil
	default:
		return telegram.NewPollingDelivery(deliveryLogger), nil, nil
	}
}

func runServices(ctx context.Context, svcs *services) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svcs.httpServer.Start(gCtx)
	})

	g.Go(func() error {
		return svcs.dispatcher.Start(gCtx)
	})

	logger.Info("tunefetch started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	runErr := g.Wait()
	if runErr != nil {
		logger.Error("tunefetch stopped with error", zap.Error(runErr))
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), core.DefaultShutdownTimeout)
	defer cancel()
	if err := svcs.dispatcher.Stop(stopCtx); err != nil {
		logger.Warn("Failed to stop dispatcher gracefully", zap.Error(err))
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("tunefetch stopped gracefully")
	return nil
}

func validateConfig(cfg *core.Config) error {
	if cfg.Telegram.BotToken == "" {
		return errors.New("telegram bot token is required")
	}

	switch cfg.Telegram.DeliveryMode {
	case core.DeliveryModePolling:
	case core.DeliveryModeWebhook:
		if cfg.Telegram.WebhookURL == "" {
			return errors.New("webhook public URL is required for webhook delivery")
		}
	default:
		return fmt.Errorf("unknown delivery mode %q (expected %s or %s)",
			cfg.Telegram.DeliveryMode, core.DeliveryModePolling, core.DeliveryModeWebhook)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}

	if cfg.Resolver.TempDir != "" {
		info, err := os.Stat(cfg.Resolver.TempDir)
		if err != nil {
			return fmt.Errorf("temp dir is not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("temp dir %s is not a directory", cfg.Resolver.TempDir)
		}
	}

	return nil
}
