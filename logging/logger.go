// Package logging builds the zerolog logger handed to every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration
type Config struct {
	Level         string `yaml:"level"`  // debug, info, warn, error
	Format        string `yaml:"format"` // json, pretty
	FileEnabled   bool   `yaml:"file_enabled"`
	Dir           string `yaml:"dir"`
	RotationSize  int    `yaml:"rotation_size"` // MB
	RetentionDays int    `yaml:"retention_days"`
}

func DefaultConfig() Config {
	return Config{
		Level:         "info",
		Format:        "pretty",
		Dir:           "logs",
		RotationSize:  50,
		RetentionDays: 14,
	}
}

func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil || c.Level == "" {
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Level)
	}
	if c.Format != "json" && c.Format != "pretty" {
		return fmt.Errorf("invalid log format: %q (must be json or pretty)", c.Format)
	}
	if c.FileEnabled && c.Dir == "" {
		return fmt.Errorf("log directory cannot be empty when file logging is enabled")
	}
	return nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	for _, c := range m {
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
	}
	return nil
}

// New builds a logger writing to stderr and, if enabled, to rotating files.
// The returned closer releases the files.
func New(cfg Config, stderr io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("invalid log level: %w", err)
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	var writers []io.Writer
	var closers multiCloser

	if cfg.Format == "pretty" {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        stderr,
			TimeFormat: "15:04:05",
		})
	} else {
		writers = append(writers, stderr)
	}

	if cfg.FileEnabled {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		appLog := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, "app.log"),
			MaxSize:    cfg.RotationSize,
			MaxAge:     cfg.RetentionDays,
			MaxBackups: 10,
			Compress:   true,
		}
		errorLog := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, "error.log"),
			MaxSize:    cfg.RotationSize,
			MaxAge:     cfg.RetentionDays,
			MaxBackups: 10,
			Compress:   true,
		}
		writers = append(writers, appLog, &errorOnly{w: errorLog})
		closers = append(closers, appLog, errorLog)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Str("service", "stockfeed").
		Logger()

	return logger, closers, nil
}

// errorOnly forwards error-and-above events.
type errorOnly struct {
	w io.Writer
}

func (e *errorOnly) Write(p []byte) (int, error) {
	return len(p), nil
}

func (e *errorOnly) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.ErrorLevel {
		return len(p), nil
	}
	return e.w.Write(p)
}
