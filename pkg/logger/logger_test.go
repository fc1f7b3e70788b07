package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"lcscraper/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "verbose"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "run.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"trace-everything", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", line, err)
	}
	return entry
}

func TestStructuredFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	log.WithFields(map[string]interface{}{
		"index": 42,
		"slug":  "two-sum",
		"delay": 5 * time.Second,
		"paid":  false,
	}).WithError(errors.New("timeout")).Warn("Item fetch failed")

	entry := decodeLine(t, &buf)
	if entry["message"] != "Item fetch failed" {
		t.Errorf("unexpected message: %v", entry["message"])
	}
	if entry["level"] != "warn" {
		t.Errorf("unexpected level: %v", entry["level"])
	}
	if entry["app"] != "lcscraper" {
		t.Errorf("expected app field, got %v", entry["app"])
	}
	if entry["index"] != float64(42) {
		t.Errorf("expected index 42, got %v", entry["index"])
	}
	if entry["slug"] != "two-sum" {
		t.Errorf("expected slug two-sum, got %v", entry["slug"])
	}
	if entry["error"] != "timeout" {
		t.Errorf("expected error timeout, got %v", entry["error"])
	}
}

func TestWithFieldDoesNotLeakIntoParent(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	parent := NewWithWriter(&buf)

	_ = parent.WithField("run_id", "abc")
	parent.Info("plain")

	entry := decodeLine(t, &buf)
	if _, ok := entry["run_id"]; ok {
		t.Error("child field leaked into parent logger")
	}
}

func TestTestLoggerCapturesChildren(t *testing.T) {
	log := NewTestLogger()

	child := log.WithField("index", 7).WithError(errors.New("boom"))
	child.Warn("Item fetch failed")
	log.Info("Scrape completed")

	msgs := log.GetMessages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Fields["index"] != 7 {
		t.Errorf("expected index field on child message, got %v", msgs[0].Fields)
	}
	if msgs[0].Error == nil || msgs[0].Error.Error() != "boom" {
		t.Errorf("expected captured error, got %v", msgs[0].Error)
	}
	if len(log.GetMessagesByLevel("WARN")) != 1 {
		t.Error("expected one warning")
	}
	if !log.HasMessage("Scrape completed") {
		t.Error("expected info message to be captured")
	}

	log.Clear()
	if len(log.GetMessages()) != 0 {
		t.Error("expected Clear to drop messages")
	}
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.WithField("k", "v").WithError(errors.New("x")).Error("ignored")
	if log.GetZerolog() == nil {
		t.Error("expected a zerolog instance")
	}
}
