// Package logging holds the process logger for cci-extract and the helpers
// that emit structured phase and progress events.
package logging

import (
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/eunmann/cci-extract/internal/logctx"
)

var (
	logger     *zerolog.Logger
	prettyMode atomic.Bool
)

func init() {
	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	logger = &l
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Init configures the process logger and the context fallback logger.
// debug lowers the level to Debug; human switches to a console writer and
// enables the human-readable companion fields on events.
func Init(debug bool, human bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	l := logctx.NewConfiguredLogger(debug, human)
	logger = &l
	logctx.SetDefaultLogger(l)
	prettyMode.Store(human)
}

// WithCommand returns a logger tagged with the CLI command being run.
func WithCommand(command string) zerolog.Logger {
	return logger.With().Str("command", command).Logger()
}

// IsPrettyMode reports whether events carry "_h" human-readable companions.
func IsPrettyMode() bool {
	return prettyMode.Load()
}
