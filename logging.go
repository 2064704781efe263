package spreadsheet

import (
	"os"

	"github.com/rs/zerolog"
)

// NewLogger builds the console-pretty, info-level zerolog.Logger every
// Model uses by default, matching the setup style the wider dependency
// pack's zerolog consumers use for local/interactive output.
func NewLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
}

// NopLogger discards everything, for tests that want Evaluate's
// structured logging silenced rather than printed.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}
