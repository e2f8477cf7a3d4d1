package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetup_ReturnsJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelInfo)

	if l == nil {
		t.Fatal("expected non-nil logger")
	}

	l.Info("test message", slog.String("key", "value"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
	}

	if entry["msg"] != "test message" {
		t.Errorf("msg = %q, want %q", entry["msg"], "test message")
	}
	if entry["key"] != "value" {
		t.Errorf("key = %q, want %q", entry["key"], "value")
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected 'time' field in JSON log output")
	}
}

func TestSetup_NilLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, nil)

	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug output should be suppressed at default level, got %s", buf.String())
	}

	l.Info("shown")
	if buf.Len() == 0 {
		t.Error("info output should be written at default level")
	}
}

func TestSetup_FavoriteAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelInfo)

	l.Info("favorite upserted",
		slog.String("google_id", "u1"),
		slog.Int64("anime_id", 42),
		slog.Int("http_status", 200),
	)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}

	if entry["google_id"] != "u1" {
		t.Errorf("google_id = %q, want %q", entry["google_id"], "u1")
	}
	if entry["anime_id"] != float64(42) {
		t.Errorf("anime_id = %v, want %v", entry["anime_id"], 42)
	}
	if entry["http_status"] != float64(200) {
		t.Errorf("http_status = %v, want %v", entry["http_status"], 200)
	}
}

func TestSetupDefault_SetLevelAdjustsGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	SetupDefault(&buf)
	t.Cleanup(func() { SetLevel(slog.LevelInfo) })

	slog.Default().Debug("before")
	if buf.Len() != 0 {
		t.Fatalf("debug should be suppressed before SetLevel, got %s", buf.String())
	}

	SetLevel(slog.LevelDebug)
	slog.Default().Debug("after", slog.String("test_key", "test_val"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v\nraw: %s", err, buf.String())
	}
	if entry["msg"] != "after" {
		t.Errorf("msg = %q, want %q", entry["msg"], "after")
	}
	if entry["level"] != "DEBUG" {
		t.Errorf("level = %q, want %q", entry["level"], "DEBUG")
	}
}
