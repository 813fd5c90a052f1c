package common

import (
	"context"
	"log/slog"
	"os"
)

// Fields carries structured attributes for the logging helpers.
type Fields map[string]any

// SetupLogger installs the process-wide slog handler on stderr. Format is
// "json" for machine-readable output, anything else gets the text handler.
func SetupLogger(level slog.Level, format string) error {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// LogError logs err at error level with the extra fields attached.
func LogError(err error, msg string, fields Fields) {
	attrs := make([]slog.Attr, 0, len(fields)+1)
	attrs = append(attrs, slog.String("error", err.Error()))
	logWithFields(slog.LevelError, msg, attrs, fields)
}

// LogWarn logs msg at warn level with the fields attached.
func LogWarn(msg string, fields Fields) {
	logWithFields(slog.LevelWarn, msg, make([]slog.Attr, 0, len(fields)), fields)
}

func logWithFields(level slog.Level, msg string, attrs []slog.Attr, fields Fields) {
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	slog.LogAttrs(context.Background(), level, msg, attrs...)
}
