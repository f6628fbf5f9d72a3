// Package i18n provides internationalization support for user-facing messages
package i18n

import (
	"fmt"
)

const (
	// DefaultLanguage is the fallback language when no translation is available
	DefaultLanguage = "en"
	// RussianLanguage is the Russian language code
	RussianLanguage = "ru"
)

// Localizer provides translation functionality
type Localizer struct {
	language string
	messages map[string]string
}

// NewLocalizer creates a new localizer for the specified language
func NewLocalizer(language string) *Localizer {
	return &Localizer{
		language: language,
		messages: getMessages(language),
	}
}

// Language returns the language code this localizer was built for.
func (l *Localizer) Language() string {
	return l.language
}

// T translates a message key, with optional parameters for formatting
func (l *Localizer) T(key string, args ...any) string {
	if message, exists := l.messages[key]; exists {
		return format(message, args)
	}

	// Fallback to English if key not found in current language
	if l.language != DefaultLanguage {
		if fallbackMessage, exists := getMessages(DefaultLanguage)[key]; exists {
			return format(fallbackMessage, args)
		}
	}

	return key
}

func format(message string, args []any) string {
	if len(args) > 0 {
		return fmt.Sprintf(message, args...)
	}
	return message
}

// GetSupportedLanguages returns list of supported language codes
func GetSupportedLanguages() []string {
	return []string{DefaultLanguage, RussianLanguage}
}

// IsSupported reports whether language has a message catalog.
func IsSupported(language string) bool {
	for _, lang := range GetSupportedLanguages() {
		if lang == language {
			return true
		}
	}
	return false
}

// getMessages returns the message map for a given language
func getMessages(language string) map[string]string {
	switch language {
	case RussianLanguage:
		return russianMessages
	default:
		return englishMessages
	}
}
