// Package chat provides a unified interface for chat frontends.
package chat

import (
	"context"
	"errors"
)

// ErrFrontendDisabled is returned by frontends that were not started.
var ErrFrontendDisabled = errors.New("chat frontend is disabled")

// Message represents a normalized inbound chat message
type Message struct {
	ID         string
	ChatID     string
	SenderID   string
	SenderName string
	Text       string
	Command    string // lower-case command name without slash, empty for plain text
	Raw        any    // underlying library message struct
}

// IsCommand reports whether the message is a bot command.
func (m *Message) IsCommand() bool {
	return m.Command != ""
}

// Audio is an outbound audio attachment.
type Audio struct {
	Data      []byte
	Filename  string
	Title     string
	Performer string
	Caption   string // HTML markup
}

// Frontend defines the unified interface for chat integrations.
// Text passed to SendText and EditText uses the HTML markup subset; link
// previews are never rendered.
type Frontend interface {
	// Start initializes the chat frontend
	Start(ctx context.Context) error

	// Listen blocks delivering messages to handler until ctx is done
	Listen(ctx context.Context, handler func(*Message)) error

	// SendText sends a text message, optionally as a reply, and returns its ID
	SendText(ctx context.Context, chatID, replyToID, text string) (string, error)

	// EditText replaces the text of a previously sent message
	EditText(ctx context.Context, chatID, messageID, text string) error

	// DeleteMessage deletes a message by its ID
	DeleteMessage(ctx context.Context, chatID, messageID string) error

	// SendAudio uploads an audio attachment, optionally as a reply
	SendAudio(ctx context.Context, chatID, replyToID string, audio *Audio) error
}
