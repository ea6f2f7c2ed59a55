// Package logging provides structured logging with file output support.
// It is configured from MERLVIEW_* environment variables.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LoggerCloser wraps a logger and provides a Close method for cleanup
type LoggerCloser struct {
	*log.Logger
	closer io.Closer
}

// Close closes the underlying writer if it's closeable. Standard streams are
// never closed.
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// ParseLevel maps a MERLVIEW_LOG_LEVEL value to a log level.
func ParseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// NewLoggerWithWriter creates a new logger with the provided writer
func NewLoggerWithWriter(w io.Writer) *LoggerCloser {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           ParseLevel(os.Getenv("MERLVIEW_LOG_LEVEL")),
	})

	prefix := os.Getenv("MERLVIEW_LOG_PREFIX")
	if prefix == "" {
		prefix = "merlview "
	}

	var closer io.Closer
	if c, ok := w.(io.Closer); ok && w != os.Stderr && w != os.Stdout {
		closer = c
	}

	return &LoggerCloser{
		Logger: lg.WithPrefix(prefix),
		closer: closer,
	}
}

// NewLogger creates a new logger based on environment variables
// MERLVIEW_LOG_LEVEL: debug, info, warn, error (default: info)
// MERLVIEW_LOG_PREFIX: prefix for log messages (default: "merlview ")
// MERLVIEW_LOG_TO_FILE: when set to "1", logs to a timestamped file instead of stderr
func NewLogger() *LoggerCloser {
	output := io.Writer(os.Stderr)

	if os.Getenv("MERLVIEW_LOG_TO_FILE") == "1" {
		timestamp := time.Now().Format("20060102-150405")
		logFile := fmt.Sprintf("merlview-%s-debug.log", timestamp)

		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err == nil {
			output = f
		}
		// If file creation fails, fall back to stderr
	}

	return NewLoggerWithWriter(output)
}

var (
	defaultOnce   sync.Once
	defaultLogger *LoggerCloser
)

// Default returns a process-wide logger built by NewLogger on first use.
func Default() *LoggerCloser {
	defaultOnce.Do(func() {
		defaultLogger = NewLogger()
	})
	return defaultLogger
}

// IsDebug returns true if debug logging is enabled
func IsDebug() bool {
	return os.Getenv("MERLVIEW_LOG_LEVEL") == "debug"
}
