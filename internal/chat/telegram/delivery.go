package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/go-telegram/bot"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidWebhookURL is returned for webhook URLs Telegram would not accept.
var ErrInvalidWebhookURL = errors.New("webhook URL must be an absolute https URL")

// Delivery is a strategy for receiving updates from Telegram. Exactly one is
// active per process.
type Delivery interface {
	// Name identifies the strategy in logs
	Name() string
	// BotOptions returns options the bot client must be created with
	BotOptions() []bot.Option
	// Run receives updates for b until ctx is done
	Run(ctx context.Context, b *bot.Bot) error
}

// PollingDelivery pulls updates with long polling.
type PollingDelivery struct {
	logger *zap.Logger
}

// NewPollingDelivery creates a long polling strategy.
func NewPollingDelivery(logger *zap.Logger) *PollingDelivery {
	return &PollingDelivery{logger: logger}
}

func (p *PollingDelivery) Name() string { return "polling" }

func (p *PollingDelivery) BotOptions() []bot.Option { return nil }

// Run removes any registered webhook, since Telegram refuses getUpdates while
// one is set, then polls until ctx is done.
func (p *PollingDelivery) Run(ctx context.Context, b *bot.Bot) error {
	if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
		p.logger.Warn("Failed to delete webhook before polling", zap.Error(err))
	}

	p.logger.Info("Polling for updates")
	b.Start(ctx)
	return nil
}

// WebhookDelivery receives updates pushed by Telegram to an HTTP endpoint.
// Handler must be mounted on a server reachable at the public URL.
type WebhookDelivery struct {
	publicURL string
	path      string
	secret    string
	logger    *zap.Logger

	handler atomic.Pointer[http.HandlerFunc]
}

// NewWebhookDelivery creates a push strategy registering publicURL+path. An
// empty secret is replaced by a random one.
func NewWebhookDelivery(publicURL, path, secret string, logger *zap.Logger) (*WebhookDelivery, error) {
	u, err := url.Parse(publicURL)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWebhookURL, publicURL)
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if secret == "" {
		// Telegram allows only A-Z, a-z, 0-9, _ and - in the secret
		secret = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	return &WebhookDelivery{
		publicURL: strings.TrimRight(publicURL, "/"),
		path:      path,
		secret:    secret,
		logger:    logger,
	}, nil
}

func (w *WebhookDelivery) Name() string { return "webhook" }

// BotOptions makes the bot reject requests without the secret token header.
func (w *WebhookDelivery) BotOptions() []bot.Option {
	return []bot.Option{bot.WithWebhookSecretToken(w.secret)}
}

// URL returns the endpoint registered with Telegram.
func (w *WebhookDelivery) URL() string {
	return w.publicURL + w.path
}

// Path returns the local HTTP path the Handler is expected at.
func (w *WebhookDelivery) Path() string {
	return w.path
}

// Handler forwards requests to the bot once Run has started and answers 503
// before that.
func (w *WebhookDelivery) Handler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		h := w.handler.Load()
		if h == nil {
			http.Error(rw, "bot is not running", http.StatusServiceUnavailable)
			return
		}
		(*h)(rw, r)
	})
}

// Run registers the webhook and processes pushed updates until ctx is done.
// The webhook stays registered afterwards so Telegram keeps pending updates.
func (w *WebhookDelivery) Run(ctx context.Context, b *bot.Bot) error {
	ok, err := b.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:         w.URL(),
		SecretToken: w.secret,
	})
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	if !ok {
		return fmt.Errorf("telegram rejected webhook %s", w.URL())
	}

	handler := b.WebhookHandler()
	w.handler.Store(&handler)
	defer w.handler.Store(nil)

	w.logger.Info("Webhook registered", zap.String("url", w.URL()))
	b.StartWebhook(ctx)
	return nil
}
