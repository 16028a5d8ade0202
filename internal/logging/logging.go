package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. level accepts zerolog names ("debug", "info", ...);
// format is "json" or "console". Development always logs to the console writer.
func New(level, format string, dev bool) zerolog.Logger {
	return newWithWriter(os.Stdout, level, format, dev)
}

func newWithWriter(w io.Writer, level, format string, dev bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if strings.ToLower(format) == "console" || dev {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Redact shortens identifiers outside development so logs don't carry them whole.
func Redact(s string, dev bool) string {
	if dev {
		return s
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-2:]
}
