// Package telegram provides Telegram Bot API integration using go-telegram/bot library.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"tunefetch/internal/chat"
	"tunefetch/internal/store"
	"tunefetch/pkg/text"
)

// Config holds Telegram-specific configuration
type Config struct {
	BotToken string
	// APIURL points at a self-hosted Bot API server; empty uses api.telegram.org.
	APIURL string
}

// Frontend implements the chat.Frontend interface for Telegram
type Frontend struct {
	config   *Config
	delivery Delivery
	dedup    *store.DedupStore
	logger   *zap.Logger
	bot      *bot.Bot

	// Message handling
	messageHandler func(*chat.Message)
}

// NewFrontend creates a new Telegram frontend receiving updates through
// delivery. Updates whose ID was already seen by dedup are dropped.
func NewFrontend(config *Config, delivery Delivery, dedup *store.DedupStore, logger *zap.Logger) *Frontend {
	if dedup == nil {
		dedup = store.NewDedupStore(store.DefaultCapacity, store.DefaultFalsePositiveRate)
	}

	return &Frontend{
		config:   config,
		delivery: delivery,
		dedup:    dedup,
		logger:   logger,
	}
}

// Start creates the Telegram bot client
func (f *Frontend) Start(_ context.Context) error {
	f.logger.Info("Starting Telegram frontend",
		zap.String("delivery", f.delivery.Name()))

	opts := []bot.Option{
		bot.WithDefaultHandler(f.handleUpdate),
	}
	if f.config.APIURL != "" {
		opts = append(opts, bot.WithServerURL(f.config.APIURL))
	}
	opts = append(opts, f.delivery.BotOptions()...)

	b, err := bot.New(f.config.BotToken, opts...)
	if err != nil {
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}

	f.bot = b

	f.logger.Info("Telegram frontend started successfully")
	return nil
}

// Listen receives updates through the delivery strategy and calls the handler
// for each message until ctx is done
func (f *Frontend) Listen(ctx context.Context, handler func(*chat.Message)) error {
	if f.bot == nil {
		return chat.ErrFrontendDisabled
	}

	f.messageHandler = handler

	if err := f.delivery.Run(ctx, f.bot); err != nil {
		return fmt.Errorf("%s delivery failed: %w", f.delivery.Name(), err)
	}
	return nil
}

// SendText sends an HTML message to the specified chat, optionally as a reply
func (f *Frontend) SendText(ctx context.Context, chatID, replyToID, text string) (string, error) {
	if f.bot == nil {
		return "", chat.ErrFrontendDisabled
	}

	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return "", err
	}

	params := &bot.SendMessageParams{
		ChatID:             chatIDInt,
		Text:               text,
		ParseMode:          models.ParseModeHTML,
		LinkPreviewOptions: disabledLinkPreview(),
	}

	params.ReplyParameters, err = replyParameters(replyToID)
	if err != nil {
		return "", err
	}

	msg, err := f.bot.SendMessage(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	return strconv.Itoa(msg.ID), nil
}

// EditText replaces the text of a message previously sent by the bot
func (f *Frontend) EditText(ctx context.Context, chatID, msgID, text string) error {
	if f.bot == nil {
		return chat.ErrFrontendDisabled
	}

	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return err
	}

	messageID, err := strconv.Atoi(msgID)
	if err != nil {
		return fmt.Errorf("invalid message ID: %w", err)
	}

	_, err = f.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:             chatIDInt,
		MessageID:          messageID,
		Text:               text,
		ParseMode:          models.ParseModeHTML,
		LinkPreviewOptions: disabledLinkPreview(),
	})
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}

	return nil
}

// DeleteMessage deletes a message by its ID
func (f *Frontend) DeleteMessage(ctx context.Context, chatID, msgID string) error {
	if f.bot == nil {
		return chat.ErrFrontendDisabled
	}

	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return err
	}

	messageID, err := strconv.Atoi(msgID)
	if err != nil {
		return fmt.Errorf("invalid message ID: %w", err)
	}

	_, err = f.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatIDInt,
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	return nil
}

// SendAudio uploads an audio file, optionally as a reply
func (f *Frontend) SendAudio(ctx context.Context, chatID, replyToID string, audio *chat.Audio) error {
	if f.bot == nil {
		return chat.ErrFrontendDisabled
	}

	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return err
	}

	params := &bot.SendAudioParams{
		ChatID: chatIDInt,
		Audio: &models.InputFileUpload{
			Filename: audio.Filename,
			Data:     bytes.NewReader(audio.Data),
		},
		Caption:   audio.Caption,
		ParseMode: models.ParseModeHTML,
		Title:     audio.Title,
		Performer: audio.Performer,
	}

	params.ReplyParameters, err = replyParameters(replyToID)
	if err != nil {
		return err
	}

	if _, err := f.bot.SendAudio(ctx, params); err != nil {
		return fmt.Errorf("failed to send audio: %w", err)
	}

	f.logger.Debug("Sent audio",
		zap.String("chatID", chatID),
		zap.String("filename", audio.Filename),
		zap.Int("bytes", len(audio.Data)))
	return nil
}

// handleUpdate processes incoming Telegram updates
func (f *Frontend) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil {
		return
	}

	if f.dedup.Seen(strconv.FormatInt(update.ID, 10)) {
		f.logger.Debug("Dropping duplicate update", zap.Int64("update_id", update.ID))
		return
	}

	if update.Message != nil {
		f.handleMessage(ctx, update.Message)
	}
}

// handleMessage converts user messages and passes them to the handler
func (f *Frontend) handleMessage(_ context.Context, msg *models.Message) {
	message := f.convertMessage(msg)
	if message == nil {
		return
	}

	if f.messageHandler != nil {
		f.messageHandler(message)
	}
}

// convertMessage returns nil for messages that should not be answered.
func (f *Frontend) convertMessage(msg *models.Message) *chat.Message {
	// Service and channel messages carry no sender
	if msg.From == nil {
		return nil
	}

	// Ignore messages from bots, including ourselves
	if msg.From.IsBot {
		return nil
	}

	if msg.Text == "" && !hasUserContent(msg) {
		return nil
	}

	message := &chat.Message{
		ID:         strconv.Itoa(msg.ID),
		ChatID:     strconv.FormatInt(msg.Chat.ID, 10),
		SenderID:   strconv.FormatInt(msg.From.ID, 10),
		SenderName: getUserDisplayName(msg.From),
		Text:       msg.Text,
		Raw:        msg,
	}

	if command, ok := text.ParseCommand(msg.Text); ok {
		message.Command = command
	}

	return message
}

// hasUserContent reports whether a text-less message was sent by a person,
// e.g. a sticker or a voice note.
func hasUserContent(msg *models.Message) bool {
	return msg.Sticker != nil || len(msg.Photo) > 0 || msg.Voice != nil ||
		msg.Audio != nil || msg.Document != nil || msg.Video != nil
}

// getUserDisplayName returns a display name for the user
func getUserDisplayName(user *models.User) string {
	if user.Username != "" {
		return "@" + user.Username
	}

	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}

	return name
}

func parseChatID(chatID string) (int64, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat ID: %w", err)
	}
	return id, nil
}

func replyParameters(replyToID string) (*models.ReplyParameters, error) {
	if replyToID == "" {
		return nil, nil
	}

	messageID, err := strconv.Atoi(replyToID)
	if err != nil {
		return nil, fmt.Errorf("invalid reply message ID: %w", err)
	}
	return &models.ReplyParameters{
		MessageID: messageID,
		// still deliver if the request message was deleted meanwhile
		AllowSendingWithoutReply: true,
	}, nil
}

func disabledLinkPreview() *models.LinkPreviewOptions {
	disabled := true
	return &models.LinkPreviewOptions{IsDisabled: &disabled}
}
