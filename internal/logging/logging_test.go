package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maximbilan/esmify/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("nil config yields a no-op logger", func(t *testing.T) {
		logger, err := New(nil, false)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		logger.Info("dropped")
	})

	t.Run("writes JSON to the log file", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "logs", "esmify.log")
		logger, err := New(&config.Config{LogFile: logFile, LogLevel: "info"}, false)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		logger.Info("conversion finished")
		_ = logger.Sync()

		data, err := os.ReadFile(logFile)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), `"msg":"conversion finished"`) {
			t.Errorf("log file missing entry, got: %s", data)
		}
	})

	t.Run("debug is dropped at info level unless verbose", func(t *testing.T) {
		dir := t.TempDir()
		quiet := filepath.Join(dir, "quiet.log")
		loud := filepath.Join(dir, "loud.log")

		q, err := New(&config.Config{LogFile: quiet, LogLevel: "info"}, false)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		l, err := New(&config.Config{LogFile: loud, LogLevel: "info"}, true)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		q.Debug("hidden")
		l.Debug("shown")
		_ = q.Sync()
		_ = l.Sync()

		qd, _ := os.ReadFile(quiet)
		ld, _ := os.ReadFile(loud)
		if strings.Contains(string(qd), "hidden") {
			t.Errorf("quiet logger wrote debug entry: %s", qd)
		}
		if !strings.Contains(string(ld), "shown") {
			t.Errorf("verbose logger missing debug entry: %s", ld)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := New(&config.Config{LogFile: filepath.Join(t.TempDir(), "x.log"), LogLevel: "loud"}, false)
		if err == nil {
			t.Error("New() with invalid level should return error")
		}
	})
}
