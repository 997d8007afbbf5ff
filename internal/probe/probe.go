// Package probe verifies that the configured LLM servers answer. Each probe
// is one blocking POST with a fixed body; a 200 is success, anything else
// (including a transport error) is failure. Nothing is retried.
package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hartyporpoise/hpcllm/internal/config"
	"github.com/hartyporpoise/hpcllm/internal/envfile"
	"github.com/hartyporpoise/hpcllm/internal/metrics"
	"github.com/hartyporpoise/hpcllm/internal/ollama"
	"github.com/hartyporpoise/hpcllm/internal/openwebui"
)

var (
	// ErrTransport wraps any failure to get an HTTP response at all.
	ErrTransport = errors.New("http transport failure")

	// ErrMissingAPIKey marks a remote probe skipped for lack of a key.
	ErrMissingAPIKey = errors.New("API_KEY is empty or missing")

	// ErrProbeFailed is returned by non-interactive runs with a failed probe.
	ErrProbeFailed = errors.New("connectivity test failed")
)

// Target selects which servers a run probes. Values match the menu numbers.
type Target int

const (
	LocalOnly Target = iota + 1
	RemoteOnly
	Both
	Exit
)

var menuOptions = []string{
	"Local server only (Ollama)",
	"Remote server only (HPC Open WebUI)",
	"Both servers",
	"Exit",
}

func (t Target) String() string {
	switch t {
	case LocalOnly:
		return "local"
	case RemoteOnly:
		return "remote"
	case Both:
		return "both"
	case Exit:
		return "exit"
	}
	return fmt.Sprintf("Target(%d)", int(t))
}

// ParseTarget parses the --target flag value.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local", "1":
		return LocalOnly, nil
	case "remote", "2":
		return RemoteOnly, nil
	case "both", "3":
		return Both, nil
	}
	return 0, fmt.Errorf("unknown target %q (want local, remote or both)", s)
}

func (t Target) local() bool  { return t == LocalOnly || t == Both }
func (t Target) remote() bool { return t == RemoteOnly || t == Both }

// Settings are the values a run reads from the materialized config file.
type Settings struct {
	URL    string // active URL_GENERATE, "" if none
	APIKey string
}

// Load reads Settings from the config file at path. First match per key wins.
func Load(path string) (Settings, error) {
	doc, err := envfile.Load(path)
	if err != nil {
		return Settings{}, err
	}
	url, _ := doc.Lookup(envfile.KeyURL)
	key, _ := doc.Lookup(envfile.KeyAPIKey)
	return Settings{URL: url, APIKey: strings.TrimSpace(key)}, nil
}

// Result is the outcome of probing one endpoint.
type Result struct {
	RunID    string
	Endpoint string // "local" or "remote"
	URL      string // full request URL

	OK         bool
	Skipped    bool
	StatusCode int    // 0 on transport failure or skip
	Body       string // raw response body
	Reply      string // extracted model reply, if the body carried one
	Err        error
	Elapsed    time.Duration
}

// Failed reports whether the probe ran and did not succeed.
func (r Result) Failed() bool { return !r.OK && !r.Skipped }

// Tester probes the endpoints named in cfg.
type Tester struct {
	cfg     *config.Config
	metrics *metrics.Collector
}

// New returns a Tester. mc may be nil.
func New(cfg *config.Config, mc *metrics.Collector) *Tester {
	if mc == nil {
		mc = metrics.NewCollector()
	}
	return &Tester{cfg: cfg, metrics: mc}
}

// Metrics is the collector results are recorded into.
func (t *Tester) Metrics() *metrics.Collector { return t.metrics }

// Run probes the servers selected by target, local first. Runs share
// nothing except the collector.
func (t *Tester) Run(ctx context.Context, target Target, s Settings) []Result {
	runID := uuid.NewString()
	t.metrics.RecordRun()

	var results []Result
	if target.local() {
		results = append(results, t.probeLocal(ctx, runID))
	}
	if target.remote() {
		results = append(results, t.probeRemote(ctx, runID, s.APIKey))
	}
	for _, r := range results {
		t.record(r)
	}
	return results
}

func (t *Tester) probeLocal(ctx context.Context, runID string) Result {
	c := ollama.NewClient(t.cfg.LocalURL)
	r := Result{RunID: runID, Endpoint: "local", URL: t.cfg.LocalURL + "/api/generate"}

	start := time.Now()
	resp, raw, err := c.Generate(ctx, ollama.GenerateRequest{Model: t.cfg.Model, Prompt: t.cfg.Prompt})
	r.Elapsed = time.Since(start)
	r.Body = string(raw)

	var se *ollama.StatusError
	switch {
	case err == nil:
		r.OK, r.StatusCode, r.Reply = true, 200, resp.Response
	case errors.As(err, &se):
		r.StatusCode, r.Err = se.Code, err
	default:
		r.Err = fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return r
}

func (t *Tester) probeRemote(ctx context.Context, runID, apiKey string) Result {
	r := Result{RunID: runID, Endpoint: "remote", URL: t.cfg.RemoteURL + "/api/chat/completions"}
	if apiKey == "" {
		r.Skipped, r.Err = true, ErrMissingAPIKey
		return r
	}

	c := openwebui.NewClient(t.cfg.RemoteURL, apiKey)
	start := time.Now()
	resp, raw, err := c.Complete(ctx, openwebui.CompletionRequest{Model: t.cfg.Model, Prompt: t.cfg.Prompt})
	r.Elapsed = time.Since(start)
	r.Body = string(raw)

	var se *openwebui.StatusError
	switch {
	case err == nil:
		r.OK, r.StatusCode, r.Reply = true, 200, resp.Reply()
	case errors.As(err, &se):
		r.StatusCode, r.Err = se.Code, err
	default:
		r.Err = fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return r
}

func (t *Tester) record(r Result) {
	ev := log.Info()
	outcome := metrics.Success
	switch {
	case r.Skipped:
		ev, outcome = log.Warn(), metrics.Skipped
	case !r.OK:
		ev, outcome = log.Warn(), metrics.Failure
	}
	t.metrics.Record(r.Endpoint, outcome, r.Elapsed)

	ev.Str("run_id", r.RunID).
		Str("endpoint", r.Endpoint).
		Str("url", r.URL).
		Int("status", r.StatusCode).
		Dur("elapsed", r.Elapsed).
		Err(r.Err).
		Msg("probe finished")
}
