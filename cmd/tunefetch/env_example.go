package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tunefetch/internal/core"
	"tunefetch/internal/i18n"
)

func generateEnvExample(cmd *cobra.Command) error {
	fmt.Println("Generating .env.example file from current configuration...")

	content := generateEnvExampleContent(cmd)

	if err := os.WriteFile(".env.example", []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write .env.example: %w", err)
	}

	fmt.Println("✅ Successfully generated .env.example file")
	return nil
}

func generateEnvExampleContent(cmd *cobra.Command) string {
	var content strings.Builder

	content.WriteString("# =============================================================================\n")
	content.WriteString("# tunefetch Configuration\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("#\n")
	content.WriteString("# Copy this file to .env and update with your values\n")
	content.WriteString("# All environment variables have CLI flag equivalents (use --help to see them)\n")
	content.WriteString("#\n")
	fmt.Fprintf(&content, "# Format: %s_<SETTING>=value\n", envPrefix)
	content.WriteString("# CLI equivalent: --<setting>\n")
	content.WriteString("#\n\n")

	generateTelegramSection(&content, cmd)
	generateResolverSection(&content, cmd)
	generateAppSection(&content, cmd)
	generateServerSection(&content, cmd)
	generateLoggingSection(&content, cmd)
	generateQuickSetupGuide(&content)

	return content.String()
}

func flagToEnvVar(flagName string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

func getDefaultValueString(cmd *cobra.Command, flagName string) string {
	if f := cmd.PersistentFlags().Lookup(flagName); f != nil {
		return f.DefValue
	}
	return ""
}

func generateTelegramSection(content *strings.Builder, cmd *cobra.Command) {
	content.WriteString("# =============================================================================\n")
	content.WriteString("# TELEGRAM CONFIGURATION - Required\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("# CLI: --telegram-bot-token, --telegram-api-url\n")

	fmt.Fprintf(content, "%s=123456789:ABC-your_bot_token_here   # Bot token from @BotFather\n",
		flagToEnvVar("telegram-bot-token"))
	fmt.Fprintf(content, "# %s=http://localhost:8081            # Self-hosted Bot API server (default: api.telegram.org)\n",
		flagToEnvVar("telegram-api-url"))
	content.WriteString("\n")

	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# Update Delivery\n")
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# CLI: --delivery-mode, --webhook-public-url, --webhook-secret\n")

	modeDefault := getDefaultValueString(cmd, "delivery-mode")

	fmt.Fprintf(content, "%s=%s                          # %s or %s (default: %s)\n",
		flagToEnvVar("delivery-mode"), modeDefault, core.DeliveryModePolling, core.DeliveryModeWebhook, modeDefault)
	fmt.Fprintf(content, "# %s=https://bot.example.com     # Public https URL, Telegram posts to <url>%s\n",
		flagToEnvVar("webhook-public-url"), core.DefaultWebhookPath)
	fmt.Fprintf(content, "# %s=change_me                       # Secret token checked on every webhook call (default: random)\n",
		flagToEnvVar("webhook-secret"))
	content.WriteString("\n")
}

func generateResolverSection(content *strings.Builder, cmd *cobra.Command) {
	content.WriteString("# =============================================================================\n")
	content.WriteString("# AUDIO EXTRACTION\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("# CLI: --temp-dir, --resolve-timeout-secs, --ytdlp-path, --ytdlp-install\n")

	timeoutDefault := getDefaultValueString(cmd, "resolve-timeout-secs")
	installDefault := getDefaultValueString(cmd, "ytdlp-install")

	fmt.Fprintf(content, "# %s=/var/tmp/tunefetch                    # Intermediate files (default: system temp dir)\n",
		flagToEnvVar("temp-dir"))
	fmt.Fprintf(content, "%s=%s                     # Search + extraction limit in seconds (default: %s)\n",
		flagToEnvVar("resolve-timeout-secs"), timeoutDefault, timeoutDefault)
	fmt.Fprintf(content, "# %s=/usr/local/bin/yt-dlp               # yt-dlp executable (default: from PATH)\n",
		flagToEnvVar("ytdlp-path"))
	fmt.Fprintf(content, "%s=%s                           # Download yt-dlp if missing (default: %s)\n",
		flagToEnvVar("ytdlp-install"), installDefault, installDefault)
	fmt.Fprintf(content, "# Files larger than %d MiB are never sent; a link is offered instead.\n",
		core.MaxPayloadBytes/(1024*1024))
	content.WriteString("\n")
}

func generateAppSection(content *strings.Builder, cmd *cobra.Command) {
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# Localization\n")
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# CLI: --language\n")

	langDefault := getDefaultValueString(cmd, "language")
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")

	fmt.Fprintf(content, "%s=%s                                    # Bot language: %s (default: %s)\n",
		flagToEnvVar("language"), langDefault, supportedLangs, langDefault)
	content.WriteString("\n")
}

func generateServerSection(content *strings.Builder, cmd *cobra.Command) {
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# HTTP Server Configuration\n")
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# CLI: --server-host, --server-port\n")

	hostDefault := getDefaultValueString(cmd, "server-host")
	portDefault := getDefaultValueString(cmd, "server-port")

	fmt.Fprintf(content, "%s=%s                         # Server bind address (default: %s)\n",
		flagToEnvVar("server-host"), hostDefault, hostDefault)
	fmt.Fprintf(content, "%s=%s                              # Server port, also serves the webhook (default: %s)\n",
		flagToEnvVar("server-port"), portDefault, portDefault)
	content.WriteString("\n")
}

func generateLoggingSection(content *strings.Builder, cmd *cobra.Command) {
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# Logging Configuration\n")
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# CLI: --log-level\n")

	logDefault := getDefaultValueString(cmd, "log-level")

	fmt.Fprintf(content, "%s=%s                                # Log level: debug, info, warn, error (default: %s)\n",
		flagToEnvVar("log-level"), logDefault, logDefault)
	content.WriteString("\n")
}

func generateQuickSetupGuide(content *strings.Builder) {
	content.WriteString("# =============================================================================\n")
	content.WriteString("# QUICK SETUP GUIDE\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("\n")
	content.WriteString("# 1. TELEGRAM SETUP:\n")
	content.WriteString("#    - Message @BotFather on Telegram\n")
	content.WriteString("#    - Create bot with /newbot command\n")
	fmt.Fprintf(content, "#    - Copy bot token to %s above\n", flagToEnvVar("telegram-bot-token"))
	content.WriteString("\n")
	content.WriteString("# 2. TOOLS:\n")
	content.WriteString("#    - Install ffmpeg (needed for mp3 conversion)\n")
	fmt.Fprintf(content, "#    - Install yt-dlp, or set %s=true\n", flagToEnvVar("ytdlp-install"))
	content.WriteString("\n")
	content.WriteString("# 3. WEBHOOK (optional):\n")
	fmt.Fprintf(content, "#    - Set %s=%s and %s\n",
		flagToEnvVar("delivery-mode"), core.DeliveryModeWebhook, flagToEnvVar("webhook-public-url"))
	fmt.Fprintf(content, "#    - Route https traffic for %s to the HTTP server port\n", core.DefaultWebhookPath)
	content.WriteString("\n")
	content.WriteString("# 4. TEST CONFIGURATION:\n")
	content.WriteString("#    go run ./cmd/tunefetch --help                        # See all CLI options\n")
	content.WriteString("#    go run ./cmd/tunefetch --log-level=debug            # Run with debug logging\n")
}
