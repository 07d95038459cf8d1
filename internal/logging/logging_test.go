package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pglens.log")

	logger, closer, err := Setup("debug", path)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Debug().Str("cmd", "connect").Msg("handling command")
	if err := closer.Close(); err != nil {
		t.Fatalf("failed to close log: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}

	line := strings.TrimSpace(string(data))
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("expected a JSON log line, got %q: %v", line, err)
	}
	if entry["cmd"] != "connect" {
		t.Errorf("expected cmd field connect, got %v", entry["cmd"])
	}
	if entry["level"] != "debug" {
		t.Errorf("expected level debug, got %v", entry["level"])
	}
}

func TestSetupRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pglens.log")

	logger, closer, err := Setup("warn", path)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	logger.Info().Msg("hidden")
	_ = closer.Close()

	data, _ := os.ReadFile(path)
	if len(data) != 0 {
		t.Errorf("expected info to be filtered at warn level, got %q", data)
	}
}

func TestSetupWithoutPath(t *testing.T) {
	_, closer, err := Setup("info", "")
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Errorf("expected no-op closer, got %v", err)
	}
}
