package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// SlogLogger adapts a *slog.Logger to the Logger interface, formatting
// messages with fmt.Sprintf the way the source's LoggerWrapper formats
// "{}"-style Python strings with .format before handing them to print().
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger. A nil logger falls back to slog.Default().
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Debug(format string, args ...any) { l.logger.Debug(fmt.Sprintf(format, args...)) }
func (l *SlogLogger) Info(format string, args ...any)  { l.logger.Info(fmt.Sprintf(format, args...)) }
func (l *SlogLogger) Warn(format string, args ...any)  { l.logger.Warn(fmt.Sprintf(format, args...)) }
func (l *SlogLogger) Error(format string, args ...any) { l.logger.Error(fmt.Sprintf(format, args...)) }

// NewSlogLoggerAtLevel builds a SlogLogger writing text-formatted records to
// os.Stderr at the given level ("debug", "info", "warn"/"warning", "error";
// anything else falls back to info), for the CLI's --log-level flag.
func NewSlogLoggerAtLevel(level string) *SlogLogger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return NewSlogLogger(slog.New(handler))
}
