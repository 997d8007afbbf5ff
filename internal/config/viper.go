package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. HPCLLM_REMOTE_URL.
const EnvPrefix = "HPCLLM"

// Keys shared by flags, env vars and viper.
const (
	KeyTemplate    = "template"
	KeyConfig      = "config"
	KeyLocalURL    = "local-url"
	KeyRemoteURL   = "remote-url"
	KeyModel       = "model"
	KeyPrompt      = "prompt"
	KeyLogLevel    = "log-level"
	KeyShowSecrets = "show-secrets"
)

// NewViper returns a viper instance with defaults and env binding set up.
// Precedence: flags > HPCLLM_* env vars > defaults.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault(KeyTemplate, d.TemplatePath)
	v.SetDefault(KeyConfig, d.ConfigPath)
	v.SetDefault(KeyLocalURL, d.LocalURL)
	v.SetDefault(KeyRemoteURL, d.RemoteURL)
	v.SetDefault(KeyModel, d.Model)
	v.SetDefault(KeyPrompt, d.Prompt)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyShowSecrets, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags makes every flag in fs override the matching viper key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	return v.BindPFlags(fs)
}

// Load builds a validated Config from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		TemplatePath: v.GetString(KeyTemplate),
		ConfigPath:   v.GetString(KeyConfig),
		LocalURL:     strings.TrimRight(v.GetString(KeyLocalURL), "/"),
		RemoteURL:    strings.TrimRight(v.GetString(KeyRemoteURL), "/"),
		Model:        v.GetString(KeyModel),
		Prompt:       v.GetString(KeyPrompt),
		LogLevel:     v.GetString(KeyLogLevel),
		ShowSecrets:  v.GetBool(KeyShowSecrets),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
