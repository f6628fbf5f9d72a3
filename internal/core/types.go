package core

import (
	"context"
	"fmt"
	"unicode/utf8"
)

const (
	// UnknownValue is used when the catalog reports no title or artist.
	UnknownValue = "Unknown"

	// maxReasonRunes bounds the length of a failure reason.
	maxReasonRunes = 200

	bytesPerMiB = 1024 * 1024
)

// SearchResult is the audio payload produced by a successful resolution.
type SearchResult struct {
	Title     string
	Artist    string
	SourceURL string
	Audio     []byte
	Size      int64
	Extension string // file extension without the dot, e.g. "mp3"
}

// SizeMiB returns the payload size in mebibytes.
func (r *SearchResult) SizeMiB() float64 {
	return float64(r.Size) / bytesPerMiB
}

// FailureKind classifies why a resolution did not produce audio.
type FailureKind int

const (
	// FailureUnexpected covers search, extraction and I/O faults.
	FailureUnexpected FailureKind = iota
	// FailureNotFound means the catalog returned no entries.
	FailureNotFound
	// FailureTooLarge means the extracted file exceeded the ceiling.
	FailureTooLarge
	// FailureNoOutput means extraction finished without producing a file.
	FailureNoOutput
)

func (k FailureKind) String() string {
	switch k {
	case FailureNotFound:
		return "not_found"
	case FailureTooLarge:
		return "too_large"
	case FailureNoOutput:
		return "no_output"
	default:
		return "unexpected"
	}
}

// ResolutionFailure describes a failed resolution. SourceURL is only set when a
// candidate was identified but could not be delivered.
type ResolutionFailure struct {
	Kind      FailureKind
	Reason    string
	SourceURL string
	Size      int64
	cause     error
}

func (f *ResolutionFailure) Error() string {
	return f.Reason
}

func (f *ResolutionFailure) Unwrap() error {
	return f.cause
}

// NewNotFound builds the failure for an empty search.
func NewNotFound() *ResolutionFailure {
	return &ResolutionFailure{Kind: FailureNotFound, Reason: "not found"}
}

// NewNoOutput builds the failure for a missing extraction output.
func NewNoOutput() *ResolutionFailure {
	return &ResolutionFailure{Kind: FailureNoOutput, Reason: "file was not created"}
}

// NewTooLarge builds the failure for a payload over maxBytes.
func NewTooLarge(size, maxBytes int64, sourceURL string) *ResolutionFailure {
	return &ResolutionFailure{
		Kind: FailureTooLarge,
		Reason: fmt.Sprintf("file too large (%.1f MiB, max %d MiB)",
			float64(size)/bytesPerMiB, maxBytes/bytesPerMiB),
		SourceURL: sourceURL,
		Size:      size,
	}
}

// NewUnexpected wraps err as a failure whose reason is derived from err.
func NewUnexpected(err error) *ResolutionFailure {
	reason := "unknown error"
	if err != nil {
		reason = truncateReason(err.Error())
	}
	return &ResolutionFailure{Kind: FailureUnexpected, Reason: reason, cause: err}
}

func truncateReason(reason string) string {
	if utf8.RuneCountInString(reason) <= maxReasonRunes {
		return reason
	}
	runes := []rune(reason)
	return string(runes[:maxReasonRunes-1]) + "…"
}

// Resolver turns a free-text query into audio. A non-nil error is always a
// *ResolutionFailure.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*SearchResult, error)
}

// MetricsRecorder receives per-request observations. Implementations must be
// safe for concurrent use.
type MetricsRecorder interface {
	RecordRequest(outcome string)
	RecordResolution(kind string, seconds float64)
	RecordDelivery(bytes int64)
	RecordError(component, errorType string)
	IncInFlight()
	DecInFlight()
}

type noopMetrics struct{}

func (noopMetrics) RecordRequest(string)             {}
func (noopMetrics) RecordResolution(string, float64) {}
func (noopMetrics) RecordDelivery(int64)             {}
func (noopMetrics) RecordError(string, string)       {}
func (noopMetrics) IncInFlight()                     {}
func (noopMetrics) DecInFlight()                     {}
