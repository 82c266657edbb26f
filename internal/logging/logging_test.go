package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/abhisek/nudgekit/internal/config"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"loud", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		l, err := New(config.LoggingConfig{Level: tt.level, Format: "console", Output: "stderr"})
		if err != nil {
			t.Fatalf("New(%q): %v", tt.level, err)
		}
		if got := l.Level(); got != tt.want {
			t.Errorf("level %q = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestNewJSONFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nudgekit.log")
	l, err := New(config.LoggingConfig{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("Nudge shown")
	_ = l.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(b)
	if !strings.Contains(line, `"msg":"Nudge shown"`) || !strings.Contains(line, `"timestamp":`) {
		t.Errorf("unexpected log line: %s", line)
	}
}

func TestNewBadOutput(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "info", Format: "json", Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	if err == nil {
		t.Fatal("expected an error for an unwritable path")
	}
}

func TestMustFallsBackToStderr(t *testing.T) {
	l := Must(config.LoggingConfig{Level: "debug", Format: "json", Output: filepath.Join(t.TempDir(), "missing", "x.log")})
	if l == nil {
		t.Fatal("Must returned nil")
	}
	if got := l.Level(); got != zapcore.InfoLevel {
		t.Errorf("fallback level = %v, want info", got)
	}

	path := filepath.Join(t.TempDir(), "nudgekit.log")
	l = Must(config.LoggingConfig{Level: "debug", Format: "json", Output: path})
	if got := l.Level(); got != zapcore.DebugLevel {
		t.Errorf("level = %v, want debug", got)
	}
	l.Debug("Trigger received")
	_ = l.Sync()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "Trigger received") {
		t.Errorf("log file missing entry: %s", b)
	}
}

func TestDevelopmentDPanics(t *testing.T) {
	l, err := New(config.LoggingConfig{Level: "info", Format: "console", Output: "stderr", Development: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected DPanic to panic in development mode")
		}
	}()
	l.DPanic("boom")
}
