// Package logger builds the structured zerolog logger shared by the server,
// the CLI and the inbox watcher.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level   string // debug, info, warn, error
	Pretty  bool   // console output for humans
	Output  io.Writer
	Service string
}

// New creates a logger. Unknown levels fall back to info.
func New(cfg Config) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	service := cfg.Service
	if service == "" {
		service = "rekindle"
	}

	return zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// LogServerStart logs server startup.
func LogServerStart(l zerolog.Logger, addr, dbPath, provider string) {
	l.Info().
		Str("event", "server_start").
		Str("addr", addr).
		Str("database", dbPath).
		Str("ai_provider", provider).
		Msg("rekindle server starting")
}

// LogServerShutdown logs server shutdown.
func LogServerShutdown(l zerolog.Logger) {
	l.Info().
		Str("event", "server_shutdown").
		Msg("rekindle server shutting down")
}
