package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"matchbook/config"
)

type Logger = zerolog.Logger

func NewLogger(cfg config.Config) Logger {
	return New(os.Stderr, cfg.Logging.Level, cfg.Logging.Pretty)
}

// New builds a logger writing to w. An unknown level falls back to info.
func New(w io.Writer, level string, pretty bool) Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("app", "matchbook").Logger()
}

// Component derives the child logger used by one subsystem.
func Component(l Logger, name string) Logger {
	return l.With().Str("component", name).Logger()
}

// Nop discards everything; tests use it.
func Nop() Logger {
	return zerolog.Nop()
}
