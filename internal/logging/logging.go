// Package logging builds the process logger from the log config section.
package logging

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/claude/nextrep/internal/config"
)

// New returns a text logger writing to stdout and, when cfg.File is set, to
// a size-rotated log file as well. The returned closer releases the file.
func New(cfg config.LogConfig, stdout io.Writer) (*slog.Logger, io.Closer) {
	w := stdout
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		w = io.MultiWriter(stdout, rotator)
		closer = rotator
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: Level(cfg.Level)})), closer
}

// Level maps a config level name to a slog level. Unknown names are info.
func Level(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
