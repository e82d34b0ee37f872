// Package logger builds the zerolog loggers used by every command and
// carries them through request and job contexts.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats accepted by Options.Format.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type ctxKey struct{}

// Options configures Build. Zero values give an info-level console logger on stderr.
type Options struct {
	Level  string
	Format string
	Out    io.Writer
}

// Build creates a logger from opts. JSON output suits log collectors; the
// console format is for people at a terminal. Output goes to stderr so CLI
// results on stdout stay clean.
func Build(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if !strings.EqualFold(strings.TrimSpace(opts.Format), FormatJSON) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp().Caller().Logger()
}

// New creates an info-level console logger.
func New() zerolog.Logger {
	return Build(Options{})
}

// NewWithLevel creates a console logger filtered to the named level.
func NewWithLevel(level string) zerolog.Logger {
	return Build(Options{Level: level})
}

// NewWithWriter creates a JSON logger writing to w at every level.
func NewWithWriter(w io.Writer) zerolog.Logger {
	return Build(Options{Level: "trace", Format: FormatJSON, Out: w})
}

// ParseLevel maps a level name such as "debug" or "WARN" to a zerolog level.
// Unknown or empty names fall back to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithContext returns a copy of ctx carrying log.
func WithContext(ctx context.Context, log zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger stored in ctx, or a default console logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return log
	}
	return New()
}
