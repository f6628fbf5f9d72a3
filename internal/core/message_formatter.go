package core

import (
	"html"
	"strings"

	"tunefetch/internal/chat"
	"tunefetch/pkg/text"
)

// Message Formatting
// User-facing texts for failures and the outbound audio attachment.

const (
	// Telegram shows at most 64 characters of audio title and performer.
	maxAudioFieldRunes = 64
	maxFilenameRunes   = 50
	defaultAudioExt    = "mp3"
)

// failureMessage renders the localized reason for failure, with a fallback
// link when the source is known.
func (d *Dispatcher) failureMessage(failure *ResolutionFailure) string {
	var message string
	switch failure.Kind {
	case FailureNotFound:
		message = d.localizer.T("error.not_found")
	case FailureTooLarge:
		message = d.localizer.T("error.too_large",
			float64(failure.Size)/bytesPerMiB, MaxPayloadBytes/bytesPerMiB)
	case FailureNoOutput:
		message = d.localizer.T("error.not_created")
	default:
		message = d.localizer.T("error.generic")
	}

	if failure.SourceURL != "" {
		message += d.localizer.T("error.fallback_link", html.EscapeString(failure.SourceURL))
	}
	return message
}

// audioFor builds the attachment for a resolved result.
func (d *Dispatcher) audioFor(result *SearchResult) *chat.Audio {
	return &chat.Audio{
		Data:      result.Audio,
		Filename:  text.SafeFilename(result.Title, maxFilenameRunes, audioExtension(result)),
		Title:     text.Truncate(result.Title, maxAudioFieldRunes),
		Performer: text.Truncate(result.Artist, maxAudioFieldRunes),
		Caption: d.localizer.T("request.caption",
			html.EscapeString(result.Title),
			html.EscapeString(result.Artist),
			result.SizeMiB()),
	}
}

func audioExtension(result *SearchResult) string {
	if result.Extension == "" {
		return defaultAudioExt
	}
	return strings.ToLower(result.Extension)
}
