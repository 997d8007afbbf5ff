package probe

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/hartyporpoise/hpcllm/internal/ollama"
	"github.com/hartyporpoise/hpcllm/internal/openwebui"
	"github.com/hartyporpoise/hpcllm/internal/ui"
)

// ModelInfo is the subset of model metadata both servers expose.
type ModelInfo struct {
	Name          string
	ParameterSize string
}

// Inventory is the model list of one endpoint.
type Inventory struct {
	Endpoint string
	Version  string // local only
	Models   []ModelInfo
	Skipped  bool
	Err      error
}

// Models lists the models offered by the servers selected by target.
func (t *Tester) Models(ctx context.Context, target Target, s Settings) []Inventory {
	var out []Inventory
	if target.local() {
		out = append(out, t.localModels(ctx))
	}
	if target.remote() {
		out = append(out, t.remoteModels(ctx, s.APIKey))
	}
	for _, inv := range out {
		log.Debug().Str("endpoint", inv.Endpoint).Int("models", len(inv.Models)).Err(inv.Err).Msg("models listed")
	}
	return out
}

func (t *Tester) localModels(ctx context.Context) Inventory {
	inv := Inventory{Endpoint: "local"}
	c := ollama.NewClient(t.cfg.LocalURL)
	if v, err := c.Version(ctx); err == nil {
		inv.Version = v
	}
	models, err := c.ListModels(ctx)
	if err != nil {
		inv.Err = err
		return inv
	}
	for _, m := range models {
		inv.Models = append(inv.Models, ModelInfo{Name: m.Name, ParameterSize: m.Details.ParameterSize})
	}
	return inv
}

func (t *Tester) remoteModels(ctx context.Context, apiKey string) Inventory {
	inv := Inventory{Endpoint: "remote"}
	if apiKey == "" {
		inv.Skipped, inv.Err = true, ErrMissingAPIKey
		return inv
	}
	models, err := openwebui.NewClient(t.cfg.RemoteURL, apiKey).ListModels(ctx)
	if err != nil {
		inv.Err = err
		return inv
	}
	for _, m := range models {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		inv.Models = append(inv.Models, ModelInfo{Name: name, ParameterSize: m.Ollama.Details.ParameterSize})
	}
	return inv
}

// ReportModels prints each inventory and returns ErrProbeFailed if any
// listing that ran failed.
func ReportModels(th *ui.Theme, invs []Inventory) error {
	var failed bool
	for _, inv := range invs {
		switch {
		case inv.Skipped:
			th.Warning("%s: skipped, %v", inv.Endpoint, inv.Err)
			continue
		case inv.Err != nil:
			th.Failure("%s: %v", inv.Endpoint, inv.Err)
			failed = true
			continue
		}
		if inv.Version != "" {
			th.Heading("%s (ollama %s): %d model(s)", inv.Endpoint, inv.Version, len(inv.Models))
		} else {
			th.Heading("%s: %d model(s)", inv.Endpoint, len(inv.Models))
		}
		for _, m := range inv.Models {
			size := m.ParameterSize
			if size == "" {
				size = "-"
			}
			th.Plain("  %-40s %s", m.Name, size)
		}
	}
	if failed {
		return ErrProbeFailed
	}
	return nil
}
