// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup points the global logger at w (normally stderr, so it never mixes
// with the interactive transcript on stdout) and sets the level. Unknown
// levels fall back to warn.
func Setup(level string, w io.Writer) zerolog.Level {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	})

	lvl := ParseLevel(level)
	zerolog.SetGlobalLevel(lvl)
	return lvl
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	case "warn", "warning":
		fallthrough
	default:
		return zerolog.WarnLevel
	}
}
