// Package logging provides structured logging with zerolog.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	TimeFormat string // RFC3339, Unix, etc.

	// FilePath enables a rotating log file next to stdout when set.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultConfig returns sensible default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "json",
		TimeFormat: time.RFC3339,
		MaxSizeMB:  20,
		MaxBackups: 3,
		MaxAgeDays: 14,
	}
}

// Init initializes the global zerolog logger.
func Init(cfg Config) {
	zerolog.TimeFieldFormat = cfg.TimeFormat

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = zerolog.New(Writer(cfg)).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Writer builds the output for cfg. The rotating file, when enabled, always
// receives JSON regardless of the console format.
func Writer(cfg Config) io.Writer {
	var output io.Writer = os.Stdout
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.Kitchen,
		}
	}
	if cfg.FilePath == "" {
		return output
	}
	file := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	return zerolog.MultiLevelWriter(output, file)
}

// Logger returns the global logger.
func Logger() zerolog.Logger {
	return log.Logger
}

// WithComponent returns a logger with a component tag.
func WithComponent(component string) zerolog.Logger {
	return log.With().
		Str("component", component).
		Logger()
}

// WithThread returns a logger with conversation thread context.
func WithThread(threadID string) zerolog.Logger {
	return log.With().
		Str("threadId", threadID).
		Logger()
}

// WithRequest returns a logger with thread and request context.
func WithRequest(threadID, requestID string) zerolog.Logger {
	return log.With().
		Str("threadId", threadID).
		Str("requestId", requestID).
		Logger()
}

// WithBackend returns a logger with request and backend context.
func WithBackend(threadID, requestID, backend string) zerolog.Logger {
	return log.With().
		Str("threadId", threadID).
		Str("requestId", requestID).
		Str("backend", backend).
		Logger()
}
