package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupWritesToFile(t *testing.T) {
	t.Setenv(EnvPath, "")
	path := filepath.Join(t.TempDir(), "logs", "meowpdf.log")
	logger, closer, err := Setup(path, "warn")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "page", 3)
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "hidden") || !strings.Contains(string(data), "msg=shown page=3") {
		t.Fatalf("unexpected log contents %q", data)
	}
}

func TestSetupEnvOverridesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.log")
	t.Setenv(EnvPath, path)
	logger, closer, err := Setup("", "info")
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello")
	closer.Close()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected log file from %s: %v", EnvPath, err)
	}
}

func TestSetupWithoutPathDiscards(t *testing.T) {
	t.Setenv(EnvPath, "")
	logger, closer, err := Setup("", "info")
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()
	if logger.Enabled(t.Context(), slog.LevelError) {
		t.Fatal("expected a discarding logger")
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel("DEBUG"); err != nil || lvl != slog.LevelDebug {
		t.Fatalf("got %v, %v", lvl, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected an error")
	}
}
