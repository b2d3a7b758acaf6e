package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rebeliceyang/lazysheet/internal/config"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	l, err := New(config.LogConfig{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l.Debug("hello")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("Expected message in log, got %s", data)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud", File: filepath.Join(t.TempDir(), "x.log")}); err == nil {
		t.Error("Expected error for unknown level")
	}
}
