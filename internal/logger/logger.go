package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New constructs a zerolog.Logger for the given environment. Development gets
// debug level and human-readable console output; anything else gets JSON.
func New(appEnv string, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}

	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()

	if appEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	return logger
}

// Setup builds the logger and installs it as the process-wide default
func Setup(appEnv string) zerolog.Logger {
	l := New(appEnv, os.Stdout)
	log.Logger = l
	return l
}
