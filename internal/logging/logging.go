package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a thin leveled wrapper around zerolog. The TUI owns stdout, so
// callers either log to stderr (CLI commands) or to a file (the dashboard).
type Logger struct {
	z zerolog.Logger
}

// New returns a logger writing to stderr. With json=false output is
// human-readable console format.
func New(level string, json bool) *Logger {
	var w io.Writer = os.Stderr
	if !json {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return &Logger{z: zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()}
}

// NewFile returns a logger appending JSON lines to path. An empty path
// yields a logger that discards everything.
func NewFile(level, path string) (*Logger, error) {
	if strings.TrimSpace(path) == "" {
		return &Logger{z: zerolog.New(io.Discard)}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Logger{z: zerolog.New(f).Level(parseLevel(level)).With().Timestamp().Logger()}, nil
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "", "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debugf(format string, args ...any) { l.z.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.z.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.z.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.z.Error().Msgf(format, args...) }
