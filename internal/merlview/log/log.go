// Package log installs the process-wide slog logger and recovers panics.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"

	"merlview/internal/logging"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
	logCloser   io.Closer
)

// Setup routes slog through a charmbracelet logger writing to logFile, or to
// stderr when logFile is empty. Only the first call has an effect.
func Setup(logFile string, debug bool) {
	initOnce.Do(func() {
		var w io.Writer = os.Stderr
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			if err == nil {
				w = f
				logCloser = f
			}
		}

		lg := logging.NewLoggerWithWriter(w)
		if debug {
			lg.SetLevel(charmlog.DebugLevel)
			lg.SetReportCaller(true)
		}

		slog.SetDefault(slog.New(lg.Logger))
		initialized.Store(true)
	})
}

func Initialized() bool {
	return initialized.Load()
}

// Close releases the log file opened by Setup, if any.
func Close() error {
	if logCloser == nil {
		return nil
	}
	return logCloser.Close()
}

func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		if Initialized() {
			slog.Error(fmt.Sprintf("Panic in %s", name),
				"panic", r,
				"stack", string(debug.Stack()))
		} else {
			fmt.Fprintf(os.Stderr, "panic in %s: %v\n%s", name, r, debug.Stack())
		}
		if cleanup != nil {
			cleanup()
		}
	}
}
