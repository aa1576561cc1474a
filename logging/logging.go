package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig enables size-rotated file output.
type FileConfig struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Config describes one logger. The zero value yields leveled JSON on
// stderr at info.
type Config struct {
	// Level is a zerolog level name ("trace" … "error"). Unknown or
	// empty selects info.
	Level string

	// Console switches the primary output to the human-readable console
	// format. JSON otherwise.
	Console bool

	// Output is the primary destination. Defaults to stderr.
	Output io.Writer

	// File adds a rotated file destination alongside the primary one.
	File *FileConfig
}

// New describes the new operation and its observable behavior. The
// returned logger is self-contained; zerolog's global level and hooks
// are never touched.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	primary := cfg.Output
	if primary == nil {
		primary = os.Stderr
	}
	if cfg.Console {
		primary = zerolog.ConsoleWriter{Out: primary, TimeFormat: "15:04:05"}
	}

	writers := []io.Writer{primary}
	if cfg.File != nil && cfg.File.Filename != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File.Filename), 0o755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.File.Filename,
				MaxSize:    cfg.File.MaxSizeMB,
				MaxBackups: cfg.File.MaxBackups,
				MaxAge:     cfg.File.MaxAgeDays,
				Compress:   cfg.File.Compress,
				LocalTime:  true,
			})
		}
	}

	var out io.Writer = writers[0]
	if len(writers) > 1 {
		out = zerolog.MultiLevelWriter(writers...)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Str("component", "gosession").Logger()
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
