// Package logging configures the process-wide structured logger.
//
// Output goes to stderr as zerolog console output when attached to a
// terminal, and as JSON otherwise, so deployment runs can be piped into
// log collectors unchanged. Credentials are never logged; they only appear
// in the generated report files.
package logging

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Setup builds the root logger. Level is one of trace, debug, info, warn,
// error; unknown values fall back to info. The MAILSHIP_LOG environment
// variable overrides the argument when set.
func Setup(level string) zerolog.Logger {
	if env := os.Getenv("MAILSHIP_LOG"); env != "" {
		level = env
	}

	var out = zerolog.New(os.Stderr)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		out = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		})
	}

	return out.Level(parseLevel(level)).With().Timestamp().Logger()
}

// Component returns a child logger tagged with a component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
