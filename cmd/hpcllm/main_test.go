package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartyporpoise/hpcllm/internal/envfile"
	"github.com/hartyporpoise/hpcllm/internal/probe"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"configure", "test", "models"})
}

func TestTestCmd_MissingConfig(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"test", "--config", filepath.Join(t.TempDir(), "missing.env"), "--target", "local"})
	err := root.Execute()
	assert.ErrorIs(t, err, envfile.ErrConfigNotFound)
}

func TestTestCmd_OncePerTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"hi"}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("URL_GENERATE="+srv.URL+"\n"), 0o600))

	root := newRootCmd()
	root.SetArgs([]string{"test", "--config", path, "--local-url", srv.URL, "--target", "local", "--log-level", "off"})
	assert.NoError(t, root.Execute())
}

func TestTestCmd_FailedProbeIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("URL_GENERATE="+srv.URL+"\n"), 0o600))

	root := newRootCmd()
	root.SetArgs([]string{"test", "--config", path, "--local-url", srv.URL, "--target", "local", "--log-level", "off"})
	assert.ErrorIs(t, root.Execute(), probe.ErrProbeFailed)
}

func TestTestCmd_BadTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	root := newRootCmd()
	root.SetArgs([]string{"test", "--config", path, "--target", "everything"})
	assert.Error(t, root.Execute())
}

func TestConfigureCmd_TemplateNotFound(t *testing.T) {
	dir := t.TempDir()
	root := newRootCmd()
	root.SetArgs([]string{"configure",
		"--template", filepath.Join(dir, "missing.example"),
		"--config", filepath.Join(dir, ".env")})
	assert.ErrorIs(t, root.Execute(), envfile.ErrTemplateNotFound)
}

func TestRootCmd_InvalidURL(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"models", "--local-url", "not a url", "--target", "local"})
	assert.Error(t, root.Execute())
}
