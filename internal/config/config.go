// Package config defines runtime configuration for hpcllm.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/hartyporpoise/hpcllm/internal/envfile"
)

// Built-in defaults. The two server URLs are the well-known endpoints the
// tool switches between.
const (
	DefaultTemplatePath = ".env.example"
	DefaultConfigPath   = ".env"
	DefaultLocalURL     = "http://localhost:11434"
	DefaultRemoteURL    = "https://chat.hpc.fau.edu"
	DefaultModel        = "llama3.2:latest"
	DefaultPrompt       = "Reply with a one sentence greeting."
	DefaultLogLevel     = "warn"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all settings passed in via CLI flags or environment variables.
// It is passed explicitly to both the writer and the tester.
type Config struct {
	// TemplatePath is the versioned template the config file is created from.
	TemplatePath string

	// ConfigPath is the materialized KEY=VALUE file.
	ConfigPath string

	// LocalURL is the base URL of the local Ollama server.
	LocalURL string

	// RemoteURL is the base URL of the remote Open WebUI server.
	RemoteURL string

	// Model and Prompt make up the body of every test request.
	Model  string
	Prompt string

	LogLevel string

	// ShowSecrets disables API key masking when the config file is echoed.
	ShowSecrets bool
}

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		TemplatePath: DefaultTemplatePath,
		ConfigPath:   DefaultConfigPath,
		LocalURL:     DefaultLocalURL,
		RemoteURL:    DefaultRemoteURL,
		Model:        DefaultModel,
		Prompt:       DefaultPrompt,
		LogLevel:     DefaultLogLevel,
	}
}

// Endpoints returns the server base URLs used to classify config lines.
func (c Config) Endpoints() envfile.Endpoints {
	return envfile.Endpoints{Local: c.LocalURL, Remote: c.RemoteURL}
}

// Validate checks that the URLs are absolute http(s) URLs and the request
// body fields are set.
func (c Config) Validate() error {
	for name, raw := range map[string]string{"local-url": c.LocalURL, "remote-url": c.RemoteURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %s %q is not an http(s) URL", ErrInvalidConfig, name, raw)
		}
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: model must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Prompt) == "" {
		return fmt.Errorf("%w: prompt must not be empty", ErrInvalidConfig)
	}
	return nil
}
