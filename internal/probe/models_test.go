package probe

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartyporpoise/hpcllm/internal/ui"
)

func TestModels_Both(t *testing.T) {
	local := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/version":
			_, _ = w.Write([]byte(`{"version":"0.5.7"}`))
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"codellama:13b","details":{"parameter_size":"13B"}}]}`))
		}
	}))
	defer local.Close()
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"id":"llava:latest","name":"","ollama":{"details":{"parameter_size":"7B"}}}]}`))
	}))
	defer remote.Close()

	invs := New(testConfig(local.URL, remote.URL), nil).Models(context.Background(), Both, Settings{APIKey: "sk-1"})
	require.Len(t, invs, 2)
	assert.Equal(t, "0.5.7", invs[0].Version)
	assert.Equal(t, []ModelInfo{{Name: "codellama:13b", ParameterSize: "13B"}}, invs[0].Models)
	assert.Equal(t, []ModelInfo{{Name: "llava:latest", ParameterSize: "7B"}}, invs[1].Models)

	var out bytes.Buffer
	require.NoError(t, ReportModels(ui.NewTheme(&out), invs))
	assert.Contains(t, out.String(), "local (ollama 0.5.7): 1 model(s)")
	assert.Contains(t, out.String(), "llava:latest")
}

func TestModels_RemoteWithoutKey(t *testing.T) {
	invs := New(testConfig("http://127.0.0.1:1", "http://127.0.0.1:1"), nil).
		Models(context.Background(), RemoteOnly, Settings{})
	require.Len(t, invs, 1)
	assert.True(t, invs[0].Skipped)

	var out bytes.Buffer
	assert.NoError(t, ReportModels(ui.NewTheme(&out), invs))
	assert.Contains(t, out.String(), "remote: skipped")
}

func TestModels_Failure(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer remote.Close()

	invs := New(testConfig("http://127.0.0.1:1", remote.URL), nil).
		Models(context.Background(), RemoteOnly, Settings{APIKey: "bad"})

	var out bytes.Buffer
	assert.ErrorIs(t, ReportModels(ui.NewTheme(&out), invs), ErrProbeFailed)
	assert.Contains(t, out.String(), "openwebui 401")
}
