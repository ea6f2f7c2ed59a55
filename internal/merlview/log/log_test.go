package log

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merlview.log")

	Setup(path, true)
	t.Cleanup(func() { _ = Close() })

	if !Initialized() {
		t.Fatal("Initialized() = false after Setup")
	}

	slog.Debug("detected layout", "format", "Full")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "detected layout") {
		t.Errorf("log file %q missing message", data)
	}
}

func TestRecoverPanicRunsCleanup(t *testing.T) {
	cleaned := false
	func() {
		defer RecoverPanic("test", func() { cleaned = true })
		panic("boom")
	}()
	if !cleaned {
		t.Error("cleanup not called")
	}
}
