// Package logging configures the process-wide logrus logger with rotating
// file output. Console output is off by default so it cannot interfere with
// the TUI.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the shared logger instance
var Logger = logrus.New()

// Config holds logging configuration
type Config struct {
	Level      string // debug, info, warn, error
	FilePath   string // path to log file; empty disables file output
	MaxSizeMB  int    // max size in MB before rotation
	MaxBackups int    // max number of rotated files to keep
	MaxAgeDays int    // max age of rotated files in days
	Console    bool   // also log to stderr
}

// DefaultConfig returns the default logging configuration
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	logPath := ""
	if home != "" {
		logPath = filepath.Join(home, ".projectflow", "logs", "projectflow.log")
	}
	return Config{
		Level:      "info",
		FilePath:   logPath,
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 7,
		Console:    false,
	}
}

// Init applies the configuration to the shared logger
func Init(cfg Config) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	var writers []io.Writer
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		})
	}
	if cfg.Console {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		Logger.SetOutput(io.Discard)
	case 1:
		Logger.SetOutput(writers[0])
	default:
		Logger.SetOutput(io.MultiWriter(writers...))
	}
	return nil
}
