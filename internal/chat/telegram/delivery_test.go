package telegram

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestNewWebhookDelivery(t *testing.T) {
	tests := []struct {
		name        string
		publicURL   string
		path        string
		expectedURL string
		wantErr     bool
	}{
		{
			name:        "Base URL",
			publicURL:   "https://bot.example.com",
			path:        "/webhook",
			expectedURL: "https://bot.example.com/webhook",
		},
		{
			name:        "Trailing slash and bare path",
			publicURL:   "https://bot.example.com/",
			path:        "webhook",
			expectedURL: "https://bot.example.com/webhook",
		},
		{
			name:        "Public URL with prefix",
			publicURL:   "https://example.com/tunefetch",
			path:        "/webhook",
			expectedURL: "https://example.com/tunefetch/webhook",
		},
		{
			name:      "Plain HTTP rejected",
			publicURL: "http://bot.example.com",
			path:      "/webhook",
			wantErr:   true,
		},
		{
			name:      "Empty URL rejected",
			publicURL: "",
			path:      "/webhook",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delivery, err := NewWebhookDelivery(tt.publicURL, tt.path, "secret", zap.NewNop())
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidWebhookURL) {
					t.Errorf("Expected ErrInvalidWebhookURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if delivery.URL() != tt.expectedURL {
				t.Errorf("URL() = %q, want %q", delivery.URL(), tt.expectedURL)
			}
			if delivery.Path() != "/webhook" {
				t.Errorf("Path() = %q, want /webhook", delivery.Path())
			}
		})
	}
}

func TestWebhookDelivery_GeneratesSecret(t *testing.T) {
	delivery, err := NewWebhookDelivery("https://bot.example.com", "/webhook", "", zap.NewNop())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(delivery.secret) != 32 {
		t.Errorf("Expected a 32 character secret, got %q", delivery.secret)
	}
	if len(delivery.BotOptions()) != 1 {
		t.Error("Webhook delivery should configure the secret token option")
	}
}

func TestWebhookDelivery_HandlerBeforeRun(t *testing.T) {
	delivery, err := NewWebhookDelivery("https://bot.example.com", "/webhook", "secret", zap.NewNop())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	w := httptest.NewRecorder()
	delivery.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before Run, got %d", w.Code)
	}
}

func TestPollingDelivery(t *testing.T) {
	delivery := NewPollingDelivery(zap.NewNop())

	if delivery.Name() != "polling" {
		t.Errorf("Name() = %q, want polling", delivery.Name())
	}
	if len(delivery.BotOptions()) != 0 {
		t.Error("Polling delivery should not add bot options")
	}
}
