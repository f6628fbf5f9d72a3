// Package resolver turns a free-text song query into an mp3 payload by way of
// a single-result catalog search and an audio-only extraction.
package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tunefetch/internal/core"
	"tunefetch/pkg/musiclink"
)

const (
	outputPrefix = "tunefetch-"
	outputExt    = ".mp3"
)

// ErrNoEntries is returned by a Catalog search that matched nothing.
var ErrNoEntries = errors.New("no entries found")

// Extensions accepted when the transcode step did not leave an mp3 behind.
var fallbackExts = []string{".webm", ".m4a", ".opus"}

// Entry is a catalog item as reported by search or extraction.
type Entry struct {
	ID       string
	Title    string
	Artist   string
	Uploader string
	Filename string // extraction only, as reported by the extractor
}

// Catalog searches a video platform and extracts audio from one item.
type Catalog interface {
	// Search returns at most one entry for query, or ErrNoEntries.
	Search(ctx context.Context, query string) ([]Entry, error)
	// Extract writes audio for url using outputTemplate, where the literal
	// "%(ext)s" stands for the final file extension.
	Extract(ctx context.Context, url, outputTemplate string) (*Entry, error)
}

// Resolver implements core.Resolver on top of a Catalog.
type Resolver struct {
	catalog  Catalog
	tempDir  string
	maxBytes int64
	timeout  time.Duration
	logger   *zap.Logger
	newID    func() string
}

// New creates a resolver writing intermediate files under cfg.TempDir.
func New(catalog Catalog, cfg core.ResolverConfig, logger *zap.Logger) *Resolver {
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	return &Resolver{
		catalog:  catalog,
		tempDir:  tempDir,
		maxBytes: core.MaxPayloadBytes,
		timeout:  cfg.ResolveTimeout(),
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// Resolve searches for query, extracts the first match and returns its audio.
// Any returned error is a *core.ResolutionFailure.
func (r *Resolver) Resolve(ctx context.Context, query string) (*core.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	entry, err := r.lookup(ctx, query)
	if err != nil {
		if errors.Is(err, ErrNoEntries) {
			r.logger.Info("No entries for query", zap.String("query", query))
			return nil, core.NewNotFound()
		}
		r.logger.Error("Search failed", zap.String("query", query), zap.Error(err))
		return nil, core.NewUnexpected(err)
	}

	sourceURL := musiclink.CanonicalURL(entry.ID)
	base := filepath.Join(r.tempDir, outputPrefix+r.newID())
	defer r.cleanup(base)

	r.logger.Info("Extracting audio",
		zap.String("url", sourceURL),
		zap.String("title", entry.Title))

	extracted, err := r.catalog.Extract(ctx, sourceURL, outputTemplate(base))
	if err != nil {
		r.logger.Error("Extraction failed", zap.String("url", sourceURL), zap.Error(err))
		return nil, core.NewUnexpected(err)
	}
	if extracted == nil {
		extracted = &Entry{}
	}

	path, size, ok := findOutput(base, extracted.Filename)
	if !ok {
		r.logger.Warn("Extraction produced no file", zap.String("url", sourceURL))
		return nil, core.NewNoOutput()
	}

	if size > r.maxBytes {
		r.logger.Info("Extracted file too large",
			zap.String("url", sourceURL),
			zap.Int64("size", size))
		return nil, core.NewTooLarge(size, r.maxBytes, sourceURL)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Error("Failed to read extracted file", zap.String("path", path), zap.Error(err))
		return nil, core.NewUnexpected(err)
	}
	// the file may have changed between stat and read
	if len(data) == 0 {
		return nil, core.NewNoOutput()
	}
	if int64(len(data)) > r.maxBytes {
		return nil, core.NewTooLarge(int64(len(data)), r.maxBytes, sourceURL)
	}

	return &core.SearchResult{
		Title:     firstNonEmpty(extracted.Title, entry.Title, core.UnknownValue),
		Artist:    firstNonEmpty(extracted.Artist, extracted.Uploader, entry.Artist, entry.Uploader, core.UnknownValue),
		SourceURL: sourceURL,
		Audio:     data,
		Size:      int64(len(data)),
		Extension: strings.TrimPrefix(filepath.Ext(path), "."),
	}, nil
}

// lookup returns the entry for a direct YouTube link or the first search hit.
func (r *Resolver) lookup(ctx context.Context, query string) (*Entry, error) {
	if videoID, ok := musiclink.VideoIDFromQuery(query); ok {
		r.logger.Debug("Query is a YouTube link, skipping search", zap.String("video_id", videoID))
		return &Entry{ID: videoID}, nil
	}

	entries, err := r.catalog.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID != "" {
			return &entries[i], nil
		}
	}
	return nil, ErrNoEntries
}

// findOutput returns the first regular non-empty file the extraction left
// behind for base.
func findOutput(base, reported string) (string, int64, bool) {
	candidates := []string{base + outputExt}
	if reported != "" && strings.HasPrefix(filepath.Clean(reported), base) {
		candidates = append(candidates, filepath.Clean(reported))
	}
	for _, ext := range fallbackExts {
		candidates = append(candidates, base+ext)
	}

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
			continue
		}
		return path, info.Size(), true
	}
	return "", 0, false
}

// outputTemplate escapes base for the extractor's template syntax, where a
// literal percent sign is written as "%%".
func outputTemplate(base string) string {
	return strings.ReplaceAll(base, "%", "%%") + ".%(ext)s"
}

// cleanup removes every file sharing the output base, including partial
// downloads and intermediate formats. Names are compared literally since the
// temp dir may contain glob metacharacters.
func (r *Resolver) cleanup(base string) {
	dir, prefix := filepath.Split(base)
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.logger.Warn("Failed to list temporary files", zap.String("base", base), zap.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("Failed to remove temporary file", zap.String("path", path), zap.Error(err))
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
