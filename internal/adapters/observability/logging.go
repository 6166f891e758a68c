package observability

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns the service's zerolog Logger writing to out.
// env=dev (or development) uses a human-friendly console writer; anything else logs JSON.
// An unknown level falls back to info.
func NewLogger(out io.Writer, env, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if env == "dev" || env == "development" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "bank-reviews").Logger()
}
