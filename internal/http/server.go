// Package http serves health, readiness, metrics and the Telegram webhook.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"tunefetch/internal/core"
)

const (
	serviceName     = "tunefetch"
	shutdownTimeout = 10 * time.Second
)

// ReadinessFunc reports whether the service can accept requests.
type ReadinessFunc func() bool

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	mux     *http.ServeMux
	server  *http.Server
	metrics *Metrics
}

// NewServer creates the server. A nil ready func reports always ready.
func NewServer(config *core.ServerConfig, metrics *Metrics, ready ReadinessFunc, logger *zap.Logger) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}
	mux := setupRoutes(logger, metrics, ready)

	return &Server{
		config:  config,
		logger:  logger,
		mux:     mux,
		server:  createHTTPServer(config, mux),
		metrics: metrics,
	}
}

// Handle mounts an extra handler, e.g. the webhook endpoint. It must be called
// before Start.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.logger.Debug("Mounting handler", zap.String("pattern", pattern))
	s.mux.Handle(pattern, handler)
}

func setupRoutes(logger *zap.Logger, metrics *Metrics, ready ReadinessFunc) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(logger, w, http.StatusOK, `{"status":"ok","service":"`+serviceName+`"}`)
	})

	mux.HandleFunc("/readyz", readyHandler(logger, ready))

	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/", homeHandler(logger))

	return mux
}

func readyHandler(logger *zap.Logger, ready ReadinessFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && !ready() {
			writeJSON(logger, w, http.StatusServiceUnavailable, `{"status":"starting","service":"`+serviceName+`"}`)
			return
		}
		writeJSON(logger, w, http.StatusOK, `{"status":"ready","service":"`+serviceName+`"}`)
	}
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.Debug("Failed to write response", zap.Error(err))
	}
}

func homeHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(homePage)); err != nil {
			logger.Debug("Failed to write home page", zap.Error(err))
		}
	}
}

const homePage = `<!DOCTYPE html>
<html>
<head>
    <title>tunefetch</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .header { color: #333; }
        .endpoint { margin: 10px 0; }
        .endpoint a { text-decoration: none; color: #0066cc; }
        .endpoint a:hover { text-decoration: underline; }
    </style>
</head>
<body>
    <h1 class="header">🎵 tunefetch</h1>
    <p>Telegram bot that finds songs on YouTube and sends them as mp3</p>

    <h2>Endpoints</h2>
    <div class="endpoint">📊 <a href="/metrics">Metrics</a> - Prometheus metrics</div>
    <div class="endpoint">💚 <a href="/healthz">Health</a> - Health check</div>
    <div class="endpoint">✅ <a href="/readyz">Ready</a> - Readiness check</div>
</body>
</html>`

func createHTTPServer(config *core.ServerConfig, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           mux,
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
	}
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) GetMetrics() *Metrics {
	return s.metrics
}
