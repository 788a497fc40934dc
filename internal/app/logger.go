package app

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to outW. It does not set the global
// logger, allowing for isolated logger instances. The text format goes through
// charm's handler, json through slog's.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		level = log.InfoLevel
	}

	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, &slog.HandlerOptions{Level: slog.Level(level)}))
	}
	return slog.New(log.NewWithOptions(outW, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	}))
}
