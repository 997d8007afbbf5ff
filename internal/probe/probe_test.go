package probe

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartyporpoise/hpcllm/internal/config"
	"github.com/hartyporpoise/hpcllm/internal/envfile"
	"github.com/hartyporpoise/hpcllm/internal/prompt"
	"github.com/hartyporpoise/hpcllm/internal/ui"
)

type fakeServer struct {
	*httptest.Server
	calls    atomic.Int32
	lastAuth atomic.Value
}

func newFakeServer(t *testing.T, path string, status int, body string) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.calls.Add(1)
		fs.lastAuth.Store(r.Header.Get("Authorization"))
		assert.Equal(t, path, r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(fs.Close)
	return fs
}

func testConfig(local, remote string) *config.Config {
	cfg := config.Default()
	cfg.LocalURL = local
	cfg.RemoteURL = remote
	return &cfg
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseTarget(t *testing.T) {
	for in, want := range map[string]Target{"local": LocalOnly, "REMOTE": RemoteOnly, " both ": Both, "3": Both} {
		got, err := ParseTarget(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseTarget("exit")
	assert.Error(t, err)
	assert.Equal(t, "remote", RemoteOnly.String())
}

func TestLoad_FirstMatchWins(t *testing.T) {
	path := writeConfig(t, "#API_KEY=off\nURL_GENERATE=https://chat.hpc.fau.edu\nAPI_KEY=first\nAPI_KEY=second\n")
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://chat.hpc.fau.edu", s.URL)
	assert.Equal(t, "first", s.APIKey)
}

func TestRun_RemoteSendsStoredKeyVerbatim(t *testing.T) {
	remote := newFakeServer(t, "/api/chat/completions", http.StatusOK, `{"choices":[]}`)

	doc := envfile.Parse([]byte("URL_GENERATE=https://chat.hpc.fau.edu\n#API_KEY=\n"))
	require.NoError(t, doc.ApplyRemote(envfile.Endpoints{Remote: "https://chat.hpc.fau.edu"}, "'sk-abc #tail'"))
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, doc.Save(path))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "'sk-abc #tail'", s.APIKey)

	results := New(testConfig("http://127.0.0.1:1", remote.URL), nil).Run(context.Background(), RemoteOnly, s)
	require.Len(t, results, 1)
	assert.True(t, results[0].OK)
	assert.Equal(t, "Bearer 'sk-abc #tail'", remote.lastAuth.Load())
}

func TestLoad_ConfigNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	assert.ErrorIs(t, err, envfile.ErrConfigNotFound)
}

func TestRun_LocalSuccess(t *testing.T) {
	local := newFakeServer(t, "/api/generate", http.StatusOK, `{"response":"hi"}`)
	tester := New(testConfig(local.URL, "http://127.0.0.1:1"), nil)

	results := tester.Run(context.Background(), LocalOnly, Settings{})
	require.Len(t, results, 1)
	r := results[0]
	assert.True(t, r.OK)
	assert.Equal(t, 200, r.StatusCode)
	assert.Equal(t, `{"response":"hi"}`, r.Body)
	assert.Equal(t, "hi", r.Reply)
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, "", local.lastAuth.Load(), "local probe sends no auth header")

	var out bytes.Buffer
	Report(ui.NewTheme(&out), results)
	assert.Contains(t, out.String(), "local: HTTP 200")
	assert.Contains(t, out.String(), `{"response":"hi"}`)
}

func TestRun_RemoteUnauthorized(t *testing.T) {
	remote := newFakeServer(t, "/api/chat/completions", http.StatusUnauthorized, `{"detail":"Not authenticated"}`)
	tester := New(testConfig("http://127.0.0.1:1", remote.URL), nil)

	results := tester.Run(context.Background(), RemoteOnly, Settings{APIKey: "sk-bad"})
	require.Len(t, results, 1)
	r := results[0]
	assert.True(t, r.Failed())
	assert.Equal(t, 401, r.StatusCode)
	assert.Equal(t, int32(1), remote.calls.Load(), "no retry")
	assert.Equal(t, "Bearer sk-bad", remote.lastAuth.Load())

	var out bytes.Buffer
	Report(ui.NewTheme(&out), results)
	assert.Contains(t, out.String(), "remote: HTTP 401")
}

func TestRun_RemoteWithoutKeyIsSkipped(t *testing.T) {
	remote := newFakeServer(t, "/api/chat/completions", http.StatusOK, `{}`)
	tester := New(testConfig("http://127.0.0.1:1", remote.URL), nil)

	results := tester.Run(context.Background(), RemoteOnly, Settings{})
	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
	assert.False(t, results[0].Failed())
	assert.ErrorIs(t, results[0].Err, ErrMissingAPIKey)
	assert.Zero(t, remote.calls.Load(), "no request without a key")

	var out bytes.Buffer
	Report(ui.NewTheme(&out), results)
	assert.Contains(t, out.String(), "remote: skipped")
}

func TestRun_Both(t *testing.T) {
	local := newFakeServer(t, "/api/generate", http.StatusOK, `{"response":"hi"}`)
	remote := newFakeServer(t, "/api/chat/completions", http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`)
	tester := New(testConfig(local.URL, remote.URL), nil)

	results := tester.Run(context.Background(), Both, Settings{APIKey: "sk-ok"})
	require.Len(t, results, 2)
	assert.Equal(t, "local", results[0].Endpoint)
	assert.Equal(t, "remote", results[1].Endpoint)
	assert.True(t, results[1].OK)
	assert.Equal(t, "hello", results[1].Reply)
	assert.Equal(t, results[0].RunID, results[1].RunID)

	snap := tester.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.Runs)
	require.Len(t, snap.Endpoints, 2)
}

func TestRun_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	results := New(testConfig(url, url), nil).Run(context.Background(), LocalOnly, Settings{})
	require.Len(t, results, 1)
	assert.True(t, results[0].Failed())
	assert.Zero(t, results[0].StatusCode)
	assert.ErrorIs(t, results[0].Err, ErrTransport)
}

func TestRunOnce(t *testing.T) {
	local := newFakeServer(t, "/api/generate", http.StatusInternalServerError, `boom`)
	path := writeConfig(t, "URL_GENERATE=http://localhost:11434\n")
	tester := New(testConfig(local.URL, "http://127.0.0.1:1"), nil)

	var out bytes.Buffer
	err := RunOnce(context.Background(), tester, ui.NewTheme(&out), path, LocalOnly)
	assert.ErrorIs(t, err, ErrProbeFailed)
	assert.Contains(t, out.String(), "local: HTTP 500")

	// A skipped remote probe is not a failure.
	err = RunOnce(context.Background(), tester, ui.NewTheme(&out), path, RemoteOnly)
	assert.NoError(t, err)
}

func newSession(t *testing.T, cfg *config.Config, path, input string) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &Session{
		Tester:     New(cfg, nil),
		Prompter:   prompt.New(strings.NewReader(input), &out),
		Theme:      ui.NewTheme(&out),
		ConfigPath: path,
	}, &out
}

func TestSession_LoopsUntilDeclined(t *testing.T) {
	local := newFakeServer(t, "/api/generate", http.StatusOK, `{"response":"hi"}`)
	path := writeConfig(t, "URL_GENERATE=http://localhost:11434\n#API_KEY=\n")

	s, out := newSession(t, testConfig(local.URL, "http://127.0.0.1:1"), path, "1\ny\n2\nn\n")
	require.NoError(t, s.Loop(context.Background()))

	assert.Equal(t, int32(1), local.calls.Load())
	assert.Contains(t, out.String(), "remote: skipped")
	assert.Contains(t, out.String(), "Session summary (2 run(s))")
}

func TestSession_InvalidChoiceThenExit(t *testing.T) {
	local := newFakeServer(t, "/api/generate", http.StatusOK, `{}`)
	path := writeConfig(t, "URL_GENERATE=http://localhost:11434\n")

	s, out := newSession(t, testConfig(local.URL, "http://127.0.0.1:1"), path, "7\nfoo\n4\n")
	require.NoError(t, s.Loop(context.Background()))

	assert.Zero(t, local.calls.Load())
	assert.Contains(t, out.String(), "invalid menu choice")
	assert.NotContains(t, out.String(), "Session summary")
}

func TestSession_EOFEndsLoop(t *testing.T) {
	local := newFakeServer(t, "/api/generate", http.StatusOK, `{}`)
	path := writeConfig(t, "URL_GENERATE=http://localhost:11434\n")

	s, _ := newSession(t, testConfig(local.URL, "http://127.0.0.1:1"), path, "1\n")
	require.NoError(t, s.Loop(context.Background()))
	assert.Equal(t, int32(1), local.calls.Load())
}

func TestSession_MissingConfig(t *testing.T) {
	s, _ := newSession(t, testConfig("http://127.0.0.1:1", "http://127.0.0.1:2"),
		filepath.Join(t.TempDir(), "missing.env"), "1\n")
	assert.ErrorIs(t, s.Loop(context.Background()), envfile.ErrConfigNotFound)
}
