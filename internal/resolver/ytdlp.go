package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"
)

const (
	searchPrefix = "ytsearch1:"
	audioFormat  = "mp3"
	audioQuality = "192K"
	// Prefer sources that fit the payload ceiling; unknown sizes still pass.
	formatSelector = "bestaudio[filesize<?50M]"
	// Fake a client address from a country allowed to watch the video.
	geoBypassDefault = "default"
)

// YTDLP is the Catalog backed by the yt-dlp executable.
type YTDLP struct {
	executable string
	logger     *zap.Logger
}

// NewYTDLP creates a catalog. An empty executable uses yt-dlp from PATH or the
// go-ytdlp cache.
func NewYTDLP(executable string, logger *zap.Logger) *YTDLP {
	return &YTDLP{
		executable: executable,
		logger:     logger,
	}
}

// Installers, replaced in tests.
var (
	installYTDLP   = ytdlp.Install
	installFFmpeg  = ytdlp.InstallFFmpeg
	installFFprobe = ytdlp.InstallFFprobe
)

// InstallYTDLP downloads yt-dlp, ffmpeg and ffprobe into the local cache when
// they are missing and returns the yt-dlp executable path. ffmpeg and ffprobe
// are found through the cache directory, which go-ytdlp puts on PATH.
func InstallYTDLP(ctx context.Context, logger *zap.Logger) (string, error) {
	resolved, err := installYTDLP(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to install yt-dlp: %w", err)
	}

	ffmpeg, err := installFFmpeg(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to install ffmpeg: %w", err)
	}
	ffprobe, err := installFFprobe(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to install ffprobe: %w", err)
	}

	logger.Info("Extractor installed",
		zap.String("ytdlp", resolved.Executable),
		zap.String("ytdlp_version", resolved.Version),
		zap.String("ffmpeg", ffmpeg.Executable),
		zap.String("ffprobe", ffprobe.Executable))
	return resolved.Executable, nil
}

func (y *YTDLP) command() *ytdlp.Command {
	cmd := ytdlp.New()
	if y.executable != "" {
		cmd.SetExecutable(y.executable)
	}
	return cmd
}

// Search runs a single-result search without resolving formats.
func (y *YTDLP) Search(ctx context.Context, query string) ([]Entry, error) {
	result, err := y.command().
		Quiet().
		NoWarnings().
		FlatPlaylist().
		DumpJSON().
		Run(ctx, searchPrefix+query)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if strings.TrimSpace(result.Stdout) == "" {
		return nil, ErrNoEntries
	}

	infos, err := result.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if info == nil || info.ID == "" {
			continue
		}
		entries = append(entries, Entry{
			ID:       info.ID,
			Title:    deref(info.Title),
			Artist:   deref(info.Artist),
			Uploader: deref(info.Uploader),
		})
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	y.logger.Debug("Search completed",
		zap.String("query", query),
		zap.String("id", entries[0].ID),
		zap.String("title", entries[0].Title))
	return entries, nil
}

// Extract downloads the best audio stream for url and transcodes it to mp3.
func (y *YTDLP) Extract(ctx context.Context, url, outputTemplate string) (*Entry, error) {
	result, err := y.command().
		Format(formatSelector).
		ExtractAudio().
		AudioFormat(audioFormat).
		AudioQuality(audioQuality).
		Output(outputTemplate).
		IgnoreErrors().
		NoPlaylist().
		XFF(geoBypassDefault).
		Quiet().
		NoWarnings().
		PrintJSON().
		Run(ctx, url)
	if err != nil {
		// With ignore-errors a failed subtitle or thumbnail still exits non-zero
		// after the audio was written; the caller checks for the file.
		exitErr, ok := ytdlp.IsExitCodeError(err)
		if !ok || result == nil || result.ExitCode <= 0 || ctx.Err() != nil {
			return nil, fmt.Errorf("extraction failed: %w", err)
		}
		y.logger.Warn("Extractor reported errors",
			zap.String("url", url),
			zap.Int("exit_code", result.ExitCode),
			zap.Error(exitErr))
	}

	entry := &Entry{}
	infos, err := result.GetExtractedInfo()
	if err != nil {
		// The output file is located by name, so metadata is best effort.
		y.logger.Debug("No extraction metadata", zap.String("url", url), zap.Error(err))
		return entry, nil
	}
	if len(infos) > 0 && infos[0] != nil {
		info := infos[0]
		entry.ID = info.ID
		entry.Title = deref(info.Title)
		entry.Artist = deref(info.Artist)
		entry.Uploader = deref(info.Uploader)
		entry.Filename = deref(info.Filename)
	}
	return entry, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
