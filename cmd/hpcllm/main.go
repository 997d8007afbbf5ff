// hpcllm — choose between a local Ollama server and the FAU HPC chat server
//
// Usage:
//
//	hpcllm configure
//	hpcllm configure --template .env.example --config .env
//	hpcllm test
//	hpcllm test --target both
//	hpcllm models --target remote
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hartyporpoise/hpcllm/internal/config"
	"github.com/hartyporpoise/hpcllm/internal/logging"
	"github.com/hartyporpoise/hpcllm/internal/metrics"
	"github.com/hartyporpoise/hpcllm/internal/probe"
	"github.com/hartyporpoise/hpcllm/internal/prompt"
	"github.com/hartyporpoise/hpcllm/internal/setup"
	"github.com/hartyporpoise/hpcllm/internal/ui"
)

const banner = `
  hpcllm · local Ollama or chat.hpc.fau.edu, one config file

  configure   write .env from the template for the server you pick
  test        send a test prompt to the configured server(s)
  models      list the models a server offers
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v   *viper.Viper
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}
	d := config.Default()

	root := &cobra.Command{
		Use:           "hpcllm",
		Short:         "hpcllm — configure and test the LLM server used by the prompt tooling",
		Long:          banner,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringP(config.KeyConfig, "c", d.ConfigPath, "Materialized config file")
	f.String(config.KeyLocalURL, d.LocalURL, "Local Ollama base URL")
	f.String(config.KeyRemoteURL, d.RemoteURL, "Remote Open WebUI base URL")
	f.StringP(config.KeyModel, "m", d.Model, "Model name sent in test requests")
	f.String(config.KeyPrompt, d.Prompt, "Prompt sent in test requests")
	f.String(config.KeyLogLevel, d.LogLevel, "Log level: trace|debug|info|warn|error|off")

	root.AddCommand(a.configureCmd(), a.testCmd(), a.modelsCmd())
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, os.Stderr)
	a.cfg = cfg
	return nil
}

func (a *app) configureCmd() *cobra.Command {
	d := config.Default()
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Create the config file from the template",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := prompt.New(os.Stdin, os.Stdout)
			th := ui.NewTheme(os.Stdout)
			w := &setup.Writer{
				Config:   a.cfg,
				Prompter: p,
				Theme:    th,
				Test: func(ctx context.Context) error {
					return a.session(p, th).Loop(ctx)
				},
			}
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().StringP(config.KeyTemplate, "t", d.TemplatePath, "Template the config file is created from")
	cmd.Flags().Bool(config.KeyShowSecrets, false, "Show the API key when echoing the written file")
	return cmd
}

func (a *app) testCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test request to the configured server(s)",
		Long: "Without --target an interactive menu is shown and tests can be repeated.\n" +
			"With --target a single pass runs and the exit code reflects the result.",
		RunE: func(cmd *cobra.Command, args []string) error {
			th := ui.NewTheme(os.Stdout)
			if target == "" {
				return a.session(prompt.New(os.Stdin, os.Stdout), th).Loop(cmd.Context())
			}
			t, err := probe.ParseTarget(target)
			if err != nil {
				return err
			}
			return probe.RunOnce(cmd.Context(), probe.New(a.cfg, nil), th, a.cfg.ConfigPath, t)
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "Run once against local|remote|both instead of the menu")
	return cmd
}

func (a *app) session(p *prompt.Prompter, th *ui.Theme) *probe.Session {
	return &probe.Session{
		Tester:     probe.New(a.cfg, metrics.NewCollector()),
		Prompter:   p,
		Theme:      th,
		ConfigPath: a.cfg.ConfigPath,
	}
}

func (a *app) modelsCmd() *cobra.Command {
	target := "both"
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models offered by the configured server(s)",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := probe.ParseTarget(target)
			if err != nil {
				return err
			}
			// The local server needs no key, so a missing config file only
			// matters when the remote server is asked.
			settings, err := probe.Load(a.cfg.ConfigPath)
			if err != nil && t != probe.LocalOnly {
				return err
			}
			invs := probe.New(a.cfg, nil).Models(cmd.Context(), t, settings)
			return probe.ReportModels(ui.NewTheme(os.Stdout), invs)
		},
	}
	cmd.Flags().StringVar(&target, "target", target, "Server to query: local|remote|both")
	return cmd
}
