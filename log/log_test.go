package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestModuleLoggerCarriesAttribute(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithHandler(slog.NewJSONHandler(&buf, nil)).Module("asyncevm")
	l.Info("hello", "k", "v")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log line: %v", err)
	}
	if entry["module"] != "asyncevm" {
		t.Fatalf("expected module attribute, got %v", entry["module"])
	}
	if entry["k"] != "v" {
		t.Fatalf("expected k=v attribute, got %v", entry["k"])
	}
	if entry["msg"] != "hello" {
		t.Fatalf("expected msg hello, got %v", entry["msg"])
	}
}

func TestDebugBelowDefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	l.Debug("quiet")
	if buf.Len() != 0 {
		t.Fatalf("debug should be suppressed at info level, got %q", buf.String())
	}
}

func TestSetDefaultIgnoresNil(t *testing.T) {
	before := Default()
	SetDefault(nil)
	if Default() != before {
		t.Fatal("nil must not replace the default logger")
	}
}
