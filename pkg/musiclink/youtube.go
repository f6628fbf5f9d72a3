// Package musiclink recognizes YouTube links and builds canonical watch URLs.
package musiclink

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// WatchURLTemplate is the canonical YouTube watch page for a video ID.
	WatchURLTemplate = "https://www.youtube.com/watch?v=%s"
)

var (
	// ErrNotYouTube is returned for URLs outside the YouTube domains.
	ErrNotYouTube = errors.New("not a YouTube URL")
	// ErrNoVideoID is returned for YouTube URLs that do not name a video.
	ErrNoVideoID = errors.New("no video ID in YouTube URL")

	videoIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

	// Path prefixes that carry the video ID as the next segment.
	idPathPrefixes = []string{"/shorts/", "/embed/", "/live/", "/v/"}
)

// CanonicalURL returns the normalized watch URL for a video ID.
func CanonicalURL(videoID string) string {
	return fmt.Sprintf(WatchURLTemplate, videoID)
}

// IsYouTubeURL checks if the URL is a YouTube or YouTube Music link.
func IsYouTubeURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	switch strings.ToLower(u.Hostname()) {
	case "youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be":
		return true
	}
	return false
}

// ExtractVideoID extracts the video ID from the common YouTube URL formats.
func ExtractVideoID(rawURL string) (string, error) {
	if !IsYouTubeURL(rawURL) {
		return "", ErrNotYouTube
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	var videoID string
	if strings.EqualFold(u.Hostname(), "youtu.be") {
		videoID = strings.Trim(u.Path, "/")
	} else {
		videoID = u.Query().Get("v")
		if videoID == "" {
			for _, prefix := range idPathPrefixes {
				if strings.HasPrefix(u.Path, prefix) {
					videoID = strings.SplitN(strings.TrimPrefix(u.Path, prefix), "/", 2)[0]
					break
				}
			}
		}
	}

	if !videoIDRegex.MatchString(videoID) {
		return "", ErrNoVideoID
	}
	return videoID, nil
}

// VideoIDFromQuery returns the video ID when the whole query is a single
// YouTube link.
func VideoIDFromQuery(query string) (string, bool) {
	query = strings.TrimSpace(query)
	if query == "" || strings.ContainsAny(query, " \t\n") {
		return "", false
	}
	if !strings.HasPrefix(query, "http://") && !strings.HasPrefix(query, "https://") {
		return "", false
	}

	videoID, err := ExtractVideoID(query)
	if err != nil {
		return "", false
	}
	return videoID, true
}
