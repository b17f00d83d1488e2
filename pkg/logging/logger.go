// Package logging is the zerolog setup shared by the sync pipeline, the
// sources and the CLI.
//
// Library code never builds its own logger. It takes the one carried by the
// context, which the CLI or the caller seeds once per run:
//
//	ctx = logging.WithLogger(ctx, &logger)
//	ctx = logging.WithSource(ctx, "serpapi")
//
//	logging.FromContext(ctx).Warn().
//	    Err(err).
//	    Str("link", rec.Link).
//	    Msg("Skipping record")
//
// Without a context logger, events go to the package default, which reads
// its settings from LOG_* variables at start-up (see EnvConfig).
package logging

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	defaultLogger zerolog.Logger

	// Nop discards every event.
	Nop = zerolog.Nop()
)

func init() {
	defaultLogger = NewLoggerFromConfig(EnvConfig())
}

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger. zerolog's global log.Logger
// follows it so third-party code logging through zerolog agrees.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// New returns a timestamped logger writing to w at the global level.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(zerolog.GlobalLevel()).
		With().
		Timestamp().
		Logger()
}

// With starts a child of the default logger.
func With() zerolog.Context {
	return defaultLogger.With()
}

// Debug starts a debug event on the default logger.
func Debug() *zerolog.Event {
	return defaultLogger.Debug()
}

// Info starts an info event on the default logger.
func Info() *zerolog.Event {
	return defaultLogger.Info()
}

// Warn starts a warn event on the default logger.
func Warn() *zerolog.Event {
	return defaultLogger.Warn()
}

// Error starts an error event on the default logger.
func Error() *zerolog.Event {
	return defaultLogger.Error()
}

// Err starts an event carrying err: error level when err is set, info otherwise.
func Err(err error) *zerolog.Event {
	return defaultLogger.Err(err)
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
