package utils

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger creates a new configured logger writing to stdout
func NewLogger(level, format string) zerolog.Logger {
	return NewLoggerWithWriter(os.Stdout, level, format)
}

// NewLoggerWithWriter creates a new configured logger writing to w.
// Format "json" emits one JSON object per line, anything else is human readable.
func NewLoggerWithWriter(w io.Writer, level, format string) zerolog.Logger {
	if !strings.EqualFold(format, "json") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	// Parse log level
	logLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(logLevel).With().Timestamp().Logger()
}
