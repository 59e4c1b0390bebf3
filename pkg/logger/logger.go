package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Init installs the process logger. Production gets JSON on stderr, everything
// else a text handler at debug level unless level says otherwise.
func Init(env string, level string) {
	InitWithWriter(env, level, os.Stderr)
}

func InitWithWriter(env string, level string, w io.Writer) {
	configure(env == "production", level, w)
}

// Configure installs the process logger from the logging section of the
// config; format "json" selects the JSON handler in any environment.
func Configure(env, level, format string) {
	configure(env == "production" || strings.EqualFold(format, "json"), level, os.Stderr)
}

func configure(asJSON bool, level string, w io.Writer) {
	var handler slog.Handler

	if asJSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level, slog.LevelInfo)})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level, slog.LevelDebug)})
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		// lazy initialize a development logger to avoid nil pointer panics
		Init("development", "")
	}
	return defaultLogger
}

func parseLevel(level string, fallback slog.Level) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
