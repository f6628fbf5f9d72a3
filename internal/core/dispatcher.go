package core

import (
	"context"
	"errors"
	"fmt"
	"html"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"tunefetch/internal/chat"
	"tunefetch/internal/i18n"
	"tunefetch/pkg/text"
)

// Request outcomes reported to the metrics recorder.
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeCommand = "command"
	OutcomeFailed  = "failed"
	OutcomeError   = "error"
)

// Dispatcher handles messages from the chat frontend: it validates each query,
// resolves it to audio and replaces the status reply with the result.
type Dispatcher struct {
	config    *Config
	frontend  chat.Frontend
	resolver  Resolver
	metrics   MetricsRecorder
	logger    *zap.Logger
	localizer *i18n.Localizer

	// context handed to per-message goroutines; survives Start's cancellation
	baseCtx  context.Context
	inFlight sync.WaitGroup
	ready    atomic.Bool
}

// NewDispatcher creates a new dispatcher with the provided chat frontend.
// A nil metrics recorder disables metrics.
func NewDispatcher(
	config *Config,
	frontend chat.Frontend,
	resolver Resolver,
	metrics MetricsRecorder,
	logger *zap.Logger,
) *Dispatcher {
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &Dispatcher{
		config:    config,
		frontend:  frontend,
		resolver:  resolver,
		metrics:   metrics,
		logger:    logger,
		localizer: i18n.NewLocalizer(config.App.Language),
		baseCtx:   context.Background(),
	}
}

// Start initializes the frontend and blocks processing messages until ctx is
// done.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info("Starting message dispatcher",
		zap.String("language", d.localizer.Language()))

	if err := d.frontend.Start(ctx); err != nil {
		return fmt.Errorf("failed to start chat frontend: %w", err)
	}

	d.baseCtx = context.WithoutCancel(ctx)
	d.ready.Store(true)
	defer d.ready.Store(false)

	return d.frontend.Listen(ctx, d.handleMessage)
}

// Ready reports whether the dispatcher is accepting messages.
func (d *Dispatcher) Ready() bool {
	return d.ready.Load()
}

// Stop waits for in-flight requests until ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.logger.Info("Stopping message dispatcher")
	d.ready.Store(false)

	done := make(chan struct{})
	go func() {
		d.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		d.logger.Warn("Shutdown timed out with requests in flight")
		return ctx.Err()
	}
}

// handleMessage runs Handle for msg in its own goroutine.
func (d *Dispatcher) handleMessage(msg *chat.Message) {
	d.inFlight.Add(1)
	go func() {
		defer d.inFlight.Done()
		d.Handle(d.baseCtx, msg)
	}()
}

// Handle processes one inbound message to completion.
func (d *Dispatcher) Handle(ctx context.Context, msg *chat.Message) {
	d.logger.Debug("Received message",
		zap.String("messageID", msg.ID),
		zap.String("chatID", msg.ChatID),
		zap.String("sender", msg.SenderName),
		zap.String("text", msg.Text),
	)

	if msg.IsCommand() {
		d.handleCommand(ctx, msg)
		return
	}

	query := text.NormalizeQuery(msg.Text)
	if query == "" {
		d.metrics.RecordRequest(OutcomeInvalid)
		d.reply(ctx, msg, d.localizer.T("request.empty"))
		return
	}

	d.metrics.IncInFlight()
	defer d.metrics.DecInFlight()

	statusID, err := d.frontend.SendText(ctx, msg.ChatID, msg.ID,
		d.localizer.T("request.searching", html.EscapeString(query)))
	if err != nil {
		d.logger.Error("Failed to send status message", zap.String("chatID", msg.ChatID), zap.Error(err))
		d.metrics.RecordError("frontend", "send_status")
		d.metrics.RecordRequest(OutcomeError)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Panic while handling request",
				zap.String("query", query),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			d.metrics.RecordRequest(OutcomeError)
			d.showGenericError(ctx, msg.ChatID, statusID)
		}
	}()

	d.processQuery(ctx, msg, statusID, query)
}

// processQuery resolves query and replaces the status message with the outcome.
func (d *Dispatcher) processQuery(ctx context.Context, msg *chat.Message, statusID, query string) {
	logger := d.logger.With(zap.String("query", query), zap.String("chatID", msg.ChatID))

	start := time.Now()
	result, err := d.resolver.Resolve(ctx, query)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		var failure *ResolutionFailure
		if !errors.As(err, &failure) {
			failure = NewUnexpected(err)
		}
		d.metrics.RecordResolution(failure.Kind.String(), elapsed)
		d.reportFailure(ctx, logger, msg.ChatID, statusID, failure)
		return
	}

	d.metrics.RecordResolution(OutcomeSuccess, elapsed)
	logger.Info("Resolved query",
		zap.String("title", result.Title),
		zap.String("url", result.SourceURL),
		zap.Int64("size", result.Size),
		zap.Float64("seconds", elapsed))

	if err := d.deliver(ctx, msg, statusID, result); err != nil {
		logger.Error("Failed to deliver audio", zap.Error(err))
		d.metrics.RecordError("frontend", "deliver")
		d.metrics.RecordRequest(OutcomeError)
		d.showGenericError(ctx, msg.ChatID, statusID)
		return
	}

	d.metrics.RecordDelivery(result.Size)
	d.metrics.RecordRequest(OutcomeSuccess)
}

// reportFailure edits the status message to the localized failure reason.
func (d *Dispatcher) reportFailure(ctx context.Context, logger *zap.Logger, chatID, statusID string,
	failure *ResolutionFailure) {
	if failure.Kind == FailureUnexpected {
		logger.Error("Resolution failed", zap.String("reason", failure.Reason), zap.Error(failure.Unwrap()))
		d.metrics.RecordError("resolver", failure.Kind.String())
	} else {
		logger.Info("Resolution failed",
			zap.String("kind", failure.Kind.String()),
			zap.String("reason", failure.Reason))
	}
	d.metrics.RecordRequest(OutcomeFailed)

	if err := d.frontend.EditText(ctx, chatID, statusID, d.failureMessage(failure)); err != nil {
		logger.Error("Failed to edit status message", zap.Error(err))
		d.metrics.RecordError("frontend", "edit_status")
	}
}

// deliver sends the audio attachment and removes the status message.
func (d *Dispatcher) deliver(ctx context.Context, msg *chat.Message, statusID string, result *SearchResult) error {
	found := d.localizer.T("request.found", html.EscapeString(result.Title))
	if err := d.frontend.EditText(ctx, msg.ChatID, statusID, found); err != nil {
		return fmt.Errorf("failed to edit status message: %w", err)
	}

	if err := d.frontend.SendAudio(ctx, msg.ChatID, msg.ID, d.audioFor(result)); err != nil {
		return fmt.Errorf("failed to send audio: %w", err)
	}

	// The audio is already delivered, a stale status message is cosmetic.
	if err := d.frontend.DeleteMessage(ctx, msg.ChatID, statusID); err != nil {
		d.logger.Warn("Failed to delete status message",
			zap.String("chatID", msg.ChatID),
			zap.String("messageID", statusID),
			zap.Error(err))
	}
	return nil
}

// handleCommand answers /start and /help; other commands are ignored.
func (d *Dispatcher) handleCommand(ctx context.Context, msg *chat.Message) {
	var reply string
	switch msg.Command {
	case "start":
		reply = d.localizer.T("command.start", MaxPayloadBytes/bytesPerMiB)
	case "help":
		reply = d.localizer.T("command.help")
	default:
		d.logger.Debug("Ignoring unknown command", zap.String("command", msg.Command))
		return
	}

	d.metrics.RecordRequest(OutcomeCommand)
	d.reply(ctx, msg, reply)
}

func (d *Dispatcher) reply(ctx context.Context, msg *chat.Message, message string) {
	if _, err := d.frontend.SendText(ctx, msg.ChatID, msg.ID, message); err != nil {
		d.logger.Error("Failed to send reply", zap.String("chatID", msg.ChatID), zap.Error(err))
		d.metrics.RecordError("frontend", "reply")
	}
}

func (d *Dispatcher) showGenericError(ctx context.Context, chatID, statusID string) {
	if err := d.frontend.EditText(ctx, chatID, statusID, d.localizer.T("error.generic")); err != nil {
		d.logger.Error("Failed to show error message", zap.String("chatID", chatID), zap.Error(err))
	}
}
