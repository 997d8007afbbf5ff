// Package setup is the interactive writer that turns the config template
// into a materialized config file pointing at exactly one LLM server.
package setup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hartyporpoise/hpcllm/internal/config"
	"github.com/hartyporpoise/hpcllm/internal/envfile"
	"github.com/hartyporpoise/hpcllm/internal/prompt"
	"github.com/hartyporpoise/hpcllm/internal/ui"
)

// Choice is the server the operator selects.
type Choice int

const (
	Local Choice = iota + 1
	Remote
)

func (c Choice) String() string {
	if c == Remote {
		return "remote"
	}
	return "local"
}

func apply(doc *envfile.Document, eps envfile.Endpoints, choice Choice, apiKey string) error {
	if choice == Remote {
		return doc.ApplyRemote(eps, apiKey)
	}
	doc.ApplyLocal(eps)
	return nil
}

// Writer runs the interactive configuration flow.
type Writer struct {
	Config   *config.Config
	Prompter *prompt.Prompter
	Theme    *ui.Theme

	// Test, when set, is offered to the operator once the file is written.
	Test func(ctx context.Context) error
}

// Run walks the operator through server selection and writes the config.
// Declining to overwrite an existing file is not an error.
func (w *Writer) Run(ctx context.Context) error {
	cfg, p, th := w.Config, w.Prompter, w.Theme

	// ── 1. Template ─────────────────────────────────────────────────────────
	doc, err := envfile.ReadTemplate(cfg.TemplatePath)
	if err != nil {
		return err
	}

	// ── 2. Existing config ──────────────────────────────────────────────────
	if envfile.Exists(cfg.ConfigPath) {
		th.Warning("%s already exists.", cfg.ConfigPath)
		ok, err := p.Confirm("Overwrite it?")
		if err != nil && !errors.Is(err, prompt.ErrAborted) {
			return err
		}
		if !ok {
			th.Plain("Keeping the existing %s unchanged.", cfg.ConfigPath)
			log.Info().Str("path", cfg.ConfigPath).Msg("overwrite declined")
			return nil
		}
	}

	// ── 3. Server selection ─────────────────────────────────────────────────
	choice, err := w.selectServer()
	if err != nil {
		return err
	}

	var apiKey string
	if choice == Remote {
		apiKey, err = p.Required(func() (string, error) {
			return p.Secret("Enter your API key: ")
		}, envfile.ErrEmptyCredential)
		if err != nil {
			return err
		}
	}

	// ── 4. Write ────────────────────────────────────────────────────────────
	if err := apply(doc, cfg.Endpoints(), choice, apiKey); err != nil {
		return err
	}
	if err := doc.Save(cfg.ConfigPath); err != nil {
		return err
	}
	log.Info().Str("path", cfg.ConfigPath).Str("server", choice.String()).Msg("config materialized")

	fmt.Fprintln(th.Writer())
	th.Success("Wrote %s (%s server)", cfg.ConfigPath, choice)
	th.Box(Echo(doc, cfg.ShowSecrets))
	if !cfg.ShowSecrets && hasSecret(doc) {
		th.Muted("API key masked above; the file holds it in full (--show-secrets prints it).")
	}

	// ── 5. Optional test ────────────────────────────────────────────────────
	if w.Test == nil {
		return nil
	}
	test, err := p.Confirm("Test the connection now?")
	if err != nil && !errors.Is(err, prompt.ErrAborted) {
		return err
	}
	if !test {
		th.Muted("Skipping the test. Run `hpcllm test` any time.")
		return nil
	}
	fmt.Fprintln(th.Writer())
	return w.Test(ctx)
}

func (w *Writer) selectServer() (Choice, error) {
	n, err := w.Prompter.Menu("Which LLM server do you want to use?", []string{
		fmt.Sprintf("Local  (%s)", w.Config.LocalURL),
		fmt.Sprintf("Remote (%s, needs an API key)", w.Config.RemoteURL),
	})
	switch {
	case errors.Is(err, prompt.ErrInvalidMenuChoice):
		// Anything unrecognized takes the non-destructive local path.
		w.Theme.Warning("Unrecognized selection, using the local server.")
		return Local, nil
	case err != nil:
		return 0, err
	}
	return Choice(n), nil
}

// Echo renders doc for display, masking API key values unless showSecrets.
func Echo(doc *envfile.Document, showSecrets bool) string {
	lines := make([]string, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		if showSecrets || l.Key != envfile.KeyAPIKey {
			lines = append(lines, l.Raw)
			continue
		}
		v := l.Setting()
		if v == "" {
			lines = append(lines, l.Raw)
			continue
		}
		prefix := ""
		if !l.Active {
			prefix = envfile.Marker
		}
		lines = append(lines, prefix+l.Key+"="+Mask(v))
	}
	return strings.Join(lines, "\n")
}

func hasSecret(doc *envfile.Document) bool {
	for _, l := range doc.Lines {
		if l.Key == envfile.KeyAPIKey && l.Setting() != "" {
			return true
		}
	}
	return false
}

// Mask hides all but the first three and last two characters of s.
func Mask(s string) string {
	r := []rune(s)
	if len(r) <= 6 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:3]) + strings.Repeat("*", len(r)-5) + string(r[len(r)-2:])
}
