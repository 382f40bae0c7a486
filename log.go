package qc

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// Component names the part of the module a log record comes from. It is
// attached to every record as the "component" attribute.
type Component string

const (
	ComponentNegotiator Component = "negotiator"
	ComponentDriver     Component = "driver"
)

var (
	// Negotiation logs protocol transitions at debug level and pin failures at
	// error level, so warn keeps a running negotiator quiet.
	level  = new(slog.LevelVar)
	logger atomic.Pointer[slog.Logger]
)

func init() {
	level.Set(slog.LevelWarn)
	logger.Store(NewLogger(os.Stderr))
}

// Logger returns the logger records are written to.
func Logger() *slog.Logger { return logger.Load() }

// SetLogger replaces the logger records are written to. A nil logger discards
// all records.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger.Store(l)
}

// LogLevel returns the level loggers made by NewLogger filter at.
func LogLevel() slog.Level { return level.Level() }

// SetLogLevel changes the level loggers made by NewLogger filter at, including
// the default one.
func SetLogLevel(l slog.Level) { level.Set(l) }

// NewLogger returns a text logger writing to w that follows SetLogLevel.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func emit(c Component, l slog.Level, msg string, args []any) {
	lg := logger.Load()
	ctx := context.Background()
	if !lg.Enabled(ctx, l) {
		return
	}
	lg.Log(ctx, l, msg, append([]any{slog.String("component", string(c))}, args...)...)
}

// LogDebug, LogInfo, LogWarn and LogError write msg for c at their level.
func LogDebug(c Component, msg string, args ...any) { emit(c, slog.LevelDebug, msg, args) }
func LogInfo(c Component, msg string, args ...any)  { emit(c, slog.LevelInfo, msg, args) }
func LogWarn(c Component, msg string, args ...any)  { emit(c, slog.LevelWarn, msg, args) }
func LogError(c Component, msg string, args ...any) { emit(c, slog.LevelError, msg, args) }
