// Package logging configures the process-wide slog logger.
//
// Log records go to a rotating file when one is configured, otherwise to
// stderr. Stderr output is human-readable text on a terminal and JSON when
// redirected, so piping jsonstruct into another tool keeps logs parseable.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mcncl/jsonstruct/internal/config"
	"github.com/mcncl/jsonstruct/internal/errors"
)

// New builds a logger from cfg. Records go to stderr unless cfg.File is set.
// The returned cleanup closes the log file and must be called on shutdown.
func New(cfg config.LogConfig, stderr io.Writer) (*slog.Logger, func() error, error) {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, errors.NewConfigError("failed to create log directory", err)
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
		return slog.New(slog.NewJSONHandler(lj, opts)), lj.Close, nil
	}

	noop := func() error { return nil }
	if IsTerminal(stderr) {
		return slog.New(slog.NewTextHandler(stderr, opts)), noop, nil
	}
	return slog.New(slog.NewJSONHandler(stderr, opts)), noop, nil
}

// Setup installs the logger built from cfg as the slog default.
func Setup(cfg config.LogConfig) (func() error, error) {
	logger, cleanup, err := New(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cleanup, nil
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ParseLevel maps a level name onto slog; unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
