package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/hartyporpoise/hpcllm/internal/metrics"
	"github.com/hartyporpoise/hpcllm/internal/prompt"
	"github.com/hartyporpoise/hpcllm/internal/ui"
)

// Session is the interactive test loop: pick a target, run, report, repeat.
type Session struct {
	Tester   *Tester
	Prompter *prompt.Prompter
	Theme    *ui.Theme

	// ConfigPath is the materialized config file every run reads.
	ConfigPath string
}

// Loop runs tests until the operator picks Exit, declines another run or
// closes stdin. A missing config file is the only error it returns.
func (s *Session) Loop(ctx context.Context) error {
	settings, err := Load(s.ConfigPath)
	if err != nil {
		return err
	}

	s.Theme.Heading("Connectivity test")
	s.Theme.Muted("config: %s", s.ConfigPath)
	if settings.URL != "" {
		s.Theme.Muted("active URL_GENERATE: %s", settings.URL)
	}
	fmt.Fprintln(s.Theme.Writer())

	for {
		n, err := s.Prompter.Choose("Which server do you want to test?", menuOptions)
		if errors.Is(err, prompt.ErrAborted) {
			break
		}
		if err != nil {
			return err
		}

		target := Target(n)
		if target == Exit {
			break
		}

		Report(s.Theme, s.Tester.Run(ctx, target, settings))

		again, err := s.Prompter.Confirm("Run another test?")
		if err != nil && !errors.Is(err, prompt.ErrAborted) {
			return err
		}
		if !again {
			break
		}
		fmt.Fprintln(s.Theme.Writer())
	}

	Summary(s.Theme, s.Tester.Metrics().Snapshot())
	return nil
}

// RunOnce probes target without prompting, reports, and returns
// ErrProbeFailed if any probe that ran did not succeed.
func RunOnce(ctx context.Context, t *Tester, th *ui.Theme, configPath string, target Target) error {
	settings, err := Load(configPath)
	if err != nil {
		return err
	}
	results := t.Run(ctx, target, settings)
	Report(th, results)
	for _, r := range results {
		if r.Failed() {
			return ErrProbeFailed
		}
	}
	return nil
}

// Report prints one block per result.
func Report(th *ui.Theme, results []Result) {
	for _, r := range results {
		switch {
		case r.Skipped:
			th.Warning("%s: skipped, %v", r.Endpoint, r.Err)
		case r.OK:
			th.Success("%s: HTTP %d in %dms (%s)", r.Endpoint, r.StatusCode, r.Elapsed.Milliseconds(), r.URL)
			th.Muted("response body:")
			th.Plain("%s", r.Body)
			if r.Reply != "" {
				th.Muted("reply:")
				th.Plain("%s", r.Reply)
			}
		case r.StatusCode != 0:
			th.Failure("%s: HTTP %d in %dms (%s)", r.Endpoint, r.StatusCode, r.Elapsed.Milliseconds(), r.URL)
			if r.Body != "" {
				th.Muted("response body:")
				th.Plain("%s", r.Body)
			}
		default:
			th.Failure("%s: %v (%s)", r.Endpoint, r.Err, r.URL)
		}
	}
}

// Summary prints per-endpoint totals for the session.
func Summary(th *ui.Theme, s metrics.Snapshot) {
	if s.Runs == 0 {
		return
	}
	fmt.Fprintln(th.Writer())
	th.Heading("Session summary (%d run(s))", s.Runs)
	for _, ep := range s.Endpoints {
		th.Plain("  %-6s  ok %d  failed %d  skipped %d  avg %.0fms",
			ep.Name, ep.Successes, ep.Failures, ep.Skipped, ep.AvgLatencyMs)
	}
}
