package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/lrstanley/go-ytdlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tunefetch/internal/core"
)

// fakeExtractor is a shell script standing in for the yt-dlp executable. It
// records its arguments one per line and then runs body.
type fakeExtractor struct {
	path     string
	argsFile string
}

func newFakeExtractor(t *testing.T, body string) *fakeExtractor {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake extractor is a POSIX shell script")
	}
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	dir := t.TempDir()
	f := &fakeExtractor{
		path:     filepath.Join(dir, "yt-dlp"),
		argsFile: filepath.Join(dir, "args"),
	}
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > '" + f.argsFile + "'\n" + body + "\n"
	require.NoError(t, os.WriteFile(f.path, []byte(script), 0o755))
	return f
}

func (f *fakeExtractor) args(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(f.argsFile)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func assertFlag(t *testing.T, args []string, flag string) {
	t.Helper()
	assert.Contains(t, args, flag)
}

func assertFlagValue(t *testing.T, args []string, flag, value string) {
	t.Helper()
	for i, arg := range args {
		if arg == flag {
			require.Less(t, i+1, len(args), "%s has no value", flag)
			assert.Equal(t, value, args[i+1], "value of %s", flag)
			return
		}
	}
	t.Errorf("flag %s not found in %v", flag, args)
}

const searchHit = `{"_type": "url", "id": "dQw4w9WgXcQ", "title": "Never Gonna Give You Up", "uploader": "Rick Astley"}`

func TestYTDLP_Search(t *testing.T) {
	fake := newFakeExtractor(t, "echo '"+searchHit+"'")
	catalog := NewYTDLP(fake.path, zap.NewNop())

	entries, err := catalog.Search(context.Background(), "never gonna give you up")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Entry{
		ID:       "dQw4w9WgXcQ",
		Title:    "Never Gonna Give You Up",
		Uploader: "Rick Astley",
	}, entries[0])

	args := fake.args(t)
	assertFlag(t, args, "--flat-playlist")
	assertFlag(t, args, "--dump-json")
	assertFlag(t, args, "--quiet")
	assert.Equal(t, "ytsearch1:never gonna give you up", args[len(args)-1])
}

func TestYTDLP_SearchNoEntries(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty output", body: "exit 0"},
		{name: "entry without id", body: `echo '{"_type": "url", "title": "No ID"}'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeExtractor(t, tt.body)
			catalog := NewYTDLP(fake.path, zap.NewNop())

			entries, err := catalog.Search(context.Background(), "asdkjhasdkjh")
			assert.Nil(t, entries)
			assert.ErrorIs(t, err, ErrNoEntries)
		})
	}
}

func TestYTDLP_SearchFailure(t *testing.T) {
	fake := newFakeExtractor(t, "echo 'ERROR: network unreachable' >&2\nexit 1")
	catalog := NewYTDLP(fake.path, zap.NewNop())

	_, err := catalog.Search(context.Background(), "song")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoEntries))
}

// extractScript writes a small file at path and prints the extraction info.
func extractScript(path string) string {
	info := `{"_type": "video", "id": "dQw4w9WgXcQ", "title": "Never Gonna Give You Up", ` +
		`"artist": "Rick Astley", "uploader": "RickAstleyVEVO", "filename": "` + path + `"}`
	return "printf 'ID3 audio' > '" + path + "'\necho '" + info + "'"
}

func TestYTDLP_Extract(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "tunefetch-x.mp3")
	fake := newFakeExtractor(t, extractScript(output))
	catalog := NewYTDLP(fake.path, zap.NewNop())

	url := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	template := filepath.Join(dir, "tunefetch-x.%(ext)s")
	entry, err := catalog.Extract(context.Background(), url, template)
	require.NoError(t, err)
	assert.Equal(t, &Entry{
		ID:       "dQw4w9WgXcQ",
		Title:    "Never Gonna Give You Up",
		Artist:   "Rick Astley",
		Uploader: "RickAstleyVEVO",
		Filename: output,
	}, entry)

	args := fake.args(t)
	assertFlagValue(t, args, "--format", "bestaudio[filesize<?50M]")
	assertFlagValue(t, args, "--audio-format", "mp3")
	assertFlagValue(t, args, "--audio-quality", "192K")
	assertFlagValue(t, args, "--output", template)
	assertFlagValue(t, args, "--xff", "default")
	for _, flag := range []string{"--extract-audio", "--no-playlist", "--ignore-errors", "--print-json", "--quiet", "--no-warnings"} {
		assertFlag(t, args, flag)
	}
	assert.NotContains(t, args, "--geo-bypass")
	assert.Equal(t, url, args[len(args)-1])
}

func TestYTDLP_ExtractWithoutMetadata(t *testing.T) {
	fake := newFakeExtractor(t, "exit 0")
	catalog := NewYTDLP(fake.path, zap.NewNop())

	entry, err := catalog.Extract(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		filepath.Join(t.TempDir(), "tunefetch-x.%(ext)s"))
	require.NoError(t, err)
	assert.Equal(t, &Entry{}, entry)
}

func TestYTDLP_ExtractToleratesItemErrors(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "tunefetch-x.mp3")
	body := extractScript(output) + "\necho 'ERROR: unable to download video subtitles' >&2\nexit 1"
	fake := newFakeExtractor(t, body)
	catalog := NewYTDLP(fake.path, zap.NewNop())

	entry, err := catalog.Extract(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		filepath.Join(dir, "tunefetch-x.%(ext)s"))
	require.NoError(t, err)
	assert.Equal(t, "Never Gonna Give You Up", entry.Title)
	assert.Equal(t, output, entry.Filename)
}

func TestYTDLP_ExtractFailures(t *testing.T) {
	t.Run("missing executable", func(t *testing.T) {
		catalog := NewYTDLP(filepath.Join(t.TempDir(), "missing"), zap.NewNop())

		_, err := catalog.Extract(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			filepath.Join(t.TempDir(), "tunefetch-x.%(ext)s"))
		require.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		fake := newFakeExtractor(t, "exit 1")
		catalog := NewYTDLP(fake.path, zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := catalog.Extract(ctx, "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			filepath.Join(t.TempDir(), "tunefetch-x.%(ext)s"))
		require.Error(t, err)
	})
}

func TestResolve_WithExtractorItemErrors(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "tunefetch-fixed.mp3")

	t.Run("file written is delivered", func(t *testing.T) {
		body := `case " $* " in *" --flat-playlist "*) echo '` + searchHit + `'; exit 0 ;; esac
` + extractScript(output) + "\necho 'ERROR: unable to download video subtitles' >&2\nexit 1"
		fake := newFakeExtractor(t, body)
		r := New(NewYTDLP(fake.path, zap.NewNop()), core.ResolverConfig{TempDir: dir, ResolveTimeoutSecs: 5}, zap.NewNop())
		r.newID = func() string { return "fixed" }

		result, err := r.Resolve(context.Background(), "never gonna give you up")
		require.NoError(t, err)
		assert.Equal(t, "Never Gonna Give You Up", result.Title)
		assert.Equal(t, "Rick Astley", result.Artist)
		assert.Equal(t, []byte("ID3 audio"), result.Audio)
		assertNoLeftovers(t, dir)
	})

	t.Run("nothing written is reported as missing output", func(t *testing.T) {
		fake := newFakeExtractor(t, "echo 'ERROR: video unavailable' >&2\nexit 1")
		r := New(NewYTDLP(fake.path, zap.NewNop()), core.ResolverConfig{TempDir: dir, ResolveTimeoutSecs: 5}, zap.NewNop())
		r.newID = func() string { return "fixed" }

		_, err := r.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
		requireFailure(t, err, core.FailureNoOutput)
		assertNoLeftovers(t, dir)
	})
}

func stubInstallers(t *testing.T, ffmpegErr error) *[]string {
	t.Helper()
	var installed []string
	origYTDLP, origFFmpeg, origFFprobe := installYTDLP, installFFmpeg, installFFprobe
	t.Cleanup(func() {
		installYTDLP, installFFmpeg, installFFprobe = origYTDLP, origFFmpeg, origFFprobe
	})

	installYTDLP = func(context.Context, *ytdlp.InstallOptions) (*ytdlp.ResolvedInstall, error) {
		installed = append(installed, "yt-dlp")
		return &ytdlp.ResolvedInstall{Executable: "/cache/yt-dlp", Version: "2025.01.01"}, nil
	}
	installFFmpeg = func(context.Context, *ytdlp.InstallFFmpegOptions) (*ytdlp.ResolvedInstall, error) {
		if ffmpegErr != nil {
			return nil, ffmpegErr
		}
		installed = append(installed, "ffmpeg")
		return &ytdlp.ResolvedInstall{Executable: "/cache/ffmpeg"}, nil
	}
	installFFprobe = func(context.Context, *ytdlp.InstallFFmpegOptions) (*ytdlp.ResolvedInstall, error) {
		installed = append(installed, "ffprobe")
		return &ytdlp.ResolvedInstall{Executable: "/cache/ffprobe"}, nil
	}
	return &installed
}

func TestInstallYTDLP(t *testing.T) {
	t.Run("installs the converter tools too", func(t *testing.T) {
		installed := stubInstallers(t, nil)

		executable, err := InstallYTDLP(context.Background(), zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, "/cache/yt-dlp", executable)
		assert.Equal(t, []string{"yt-dlp", "ffmpeg", "ffprobe"}, *installed)
	})

	t.Run("ffmpeg failure", func(t *testing.T) {
		installed := stubInstallers(t, errors.New("unsupported platform"))

		_, err := InstallYTDLP(context.Background(), zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ffmpeg")
		assert.Equal(t, []string{"yt-dlp"}, *installed)
	})
}
