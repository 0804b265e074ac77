// Package logging builds the process logger.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

type Options struct {
	Level string
	// Console defaults to os.Stdout.
	Console io.Writer
	// File appends text logs to this path when set.
	File    string
	Graylog GraylogOptions
}

type GraylogOptions struct {
	Enabled bool
	Address string
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func handlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
}

// New returns the logger and a close function that releases the file and
// the Graylog connection.
func New(opts Options) (*slog.Logger, func() error, error) {
	hopts := handlerOptions(ParseLevel(opts.Level))
	var closers []io.Closer

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	handlers := []slog.Handler{slog.NewTextHandler(console, hopts)}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closers = append(closers, f)
		handlers = append(handlers, slog.NewTextHandler(f, hopts))
	}

	if opts.Graylog.Enabled {
		w, err := gelf.NewWriter(opts.Graylog.Address)
		if err != nil {
			closeAll(closers)
			return nil, nil, fmt.Errorf("connect graylog %s: %w", opts.Graylog.Address, err)
		}
		closers = append(closers, w)
		handlers = append(handlers, slog.NewJSONHandler(w, hopts))
	}

	logger := slog.New(NewMultiHandler(handlers...))
	return logger, func() error { return closeAll(closers) }, nil
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
