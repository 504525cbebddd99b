package integration

import (
	"bytes"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/socialchef/transcriptor/internal/api"
	"github.com/socialchef/transcriptor/internal/config"
	"github.com/socialchef/transcriptor/internal/services/transcription"
)

// ============================================================================
// Fixtures
// ============================================================================

func requireFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}
}

// fakeWhisper installs a stand-in for the whisper CLI that writes text as the
// transcription and records every invocation in the returned log file.
func fakeWhisper(t *testing.T, text string) (binary, callLog string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}

	dir := t.TempDir()
	binary = filepath.Join(dir, "whisper")
	callLog = filepath.Join(dir, "calls.log")
	textFile := filepath.Join(dir, "text.txt")
	require.NoError(t, os.WriteFile(textFile, []byte(text), 0o644))

	script := `#!/bin/sh
echo "$@" >> "` + callLog + `"
audio="$1"
while [ $# -gt 0 ]; do
  if [ "$1" = "--output_dir" ]; then out="$2"; fi
  shift
done
name=$(basename "$audio")
cp "` + textFile + `" "$out/${name%.*}.txt"
`
	require.NoError(t, os.WriteFile(binary, []byte(script), 0o755))
	return binary, callLog
}

// silentVideo renders a black, silent mp4 of the given length in seconds.
func silentVideo(t *testing.T, seconds string) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "silent.mp4")
	cmd := exec.Command("ffmpeg", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=c=black:s=160x120:r=10:d="+seconds,
		"-f", "lavfi", "-i", "anullsrc=r=44100:cl=mono",
		"-t", seconds, "-c:v", "mpeg4", "-c:a", "aac", "-shortest", path)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "create silent video: %s", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// ============================================================================
// Server
// ============================================================================

type testEnv struct {
	server  *httptest.Server
	tempDir string
	callLog string
}

func newTestEnv(t *testing.T, whisperText string) *testEnv {
	t.Helper()
	binary, callLog := fakeWhisper(t, whisperText)

	cfg := &config.Config{ServiceName: "transcriptor-integration"}
	cfg.Transcription.Provider = "whisper"
	cfg.Media.WhisperPath = binary
	cfg.Media.TempDir = t.TempDir()
	cfg.SetTranscriptionDefaults()
	cfg.SetMediaDefaults()

	model := transcription.NewModel(cfg)
	pipeline := transcription.NewPipeline(transcription.NewFFmpegExtractor(cfg.Media.FFmpegPath), model, cfg.Media.TempDir)
	server := httptest.NewServer(api.NewServer(cfg, pipeline, model.Name()).Routes())
	t.Cleanup(server.Close)

	return &testEnv{server: server, tempDir: cfg.Media.TempDir, callLog: callLog}
}

func (e *testEnv) upload(t *testing.T, filename string, content []byte) (*http.Response, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("video", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(e.server.URL+"/", mw.FormDataContentType(), body)
	require.NoError(t, err)
	defer resp.Body.Close()

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(page)
}

var hiddenRe = regexp.MustCompile(`<input type="hidden" name="transcription" value="([^"]*)">`)

// download submits the page's download form, as the browser would.
func (e *testEnv) download(t *testing.T, page string) (*http.Response, []byte) {
	t.Helper()
	match := hiddenRe.FindStringSubmatch(page)
	require.Len(t, match, 2, "download form not found")

	resp, err := http.PostForm(e.server.URL+"/download", url.Values{"transcription": {html.UnescapeString(match[1])}})
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) requireNoWorkspaces(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(e.tempDir)
	require.NoError(t, err)
	require.Empty(t, entries, "workspaces left behind")
}
