package util

import (
	"log/slog"
	"os"
	"strings"

	gormlogger "gorm.io/gorm/logger"
)

// ParseLevel maps a configured level name to a slog level. Unknown names
// map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger installs a JSON slog logger on stdout at level as the default
// and returns it.
func InitLogger(level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: true,
	})
	logger := slog.New(handler).With("app", "dexter")
	slog.SetDefault(logger)
	return logger
}

// GormLogLevel is the SQL logger level for a configured level: debug traces
// every statement, error drops slow-query warnings.
func GormLogLevel(level string) gormlogger.LogLevel {
	switch ParseLevel(level) {
	case slog.LevelDebug:
		return gormlogger.Info
	case slog.LevelError:
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}
