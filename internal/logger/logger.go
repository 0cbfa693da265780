// Package logger owns the process-wide structured logger. Until Init is
// called every message is discarded, so packages can log unconditionally.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the global logger instance.
var Logger = log.New(io.Discard)

var rotator *lumberjack.Logger

// Config holds logger configuration.
type Config struct {
	// Debug lowers the level to debug and adds caller info.
	Debug bool
	// Stderr mirrors log lines to stderr. Leave it off while the TUI owns
	// the terminal.
	Stderr bool
	// Dir is the directory holding logs/planbatch.log.
	Dir string
}

// Init replaces the global logger with one writing to a rotating file.
func Init(cfg Config) error {
	logDir := filepath.Join(cfg.Dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("creating log directory %s: %w", logDir, err)
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "planbatch.log"),
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}

	level := log.InfoLevel
	if cfg.Debug {
		level = log.DebugLevel
	}

	var writer io.Writer = fileWriter
	if cfg.Stderr {
		writer = io.MultiWriter(os.Stderr, fileWriter)
	}

	Close()
	rotator = fileWriter
	Logger = log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "planbatch",
	})
	return nil
}

// Close flushes and closes the log file, then falls back to discarding.
func Close() {
	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}
	Logger = log.New(io.Discard)
}

// With returns a child logger carrying keyvals on every line.
func With(keyvals ...any) *log.Logger {
	return Logger.With(keyvals...)
}

func Debug(msg string, keyvals ...any) { Logger.Debug(msg, keyvals...) }

func Info(msg string, keyvals ...any) { Logger.Info(msg, keyvals...) }

func Warn(msg string, keyvals ...any) { Logger.Warn(msg, keyvals...) }

func Error(msg string, keyvals ...any) { Logger.Error(msg, keyvals...) }
