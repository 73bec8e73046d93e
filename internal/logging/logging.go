// Package logging builds the process logger.
//
// The TUI owns the terminal, so while it runs logs go to a rotating file.
// One-shot commands log to stderr.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the log destination.
type Options struct {
	// Path is the log file. Empty logs to Console.
	Path    string
	Console io.Writer
	Verbose bool
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger and the closer of its destination.
func New(opts Options) (*slog.Logger, *slog.LevelVar, io.Closer) {
	level := &slog.LevelVar{}
	if opts.Verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if opts.Path != "" {
		file := &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		return slog.New(slog.NewJSONHandler(file, handlerOpts)), level, file
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	return slog.New(slog.NewTextHandler(console, handlerOpts)), level, nopCloser{}
}
