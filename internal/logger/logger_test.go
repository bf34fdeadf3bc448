package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetup_ReturnsJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelInfo)

	l.Info("enroll_event", slog.String("event", "enroll"), slog.String("username", "Manu"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
	}
	if entry["msg"] != "enroll_event" {
		t.Errorf("msg = %q, want %q", entry["msg"], "enroll_event")
	}
	if entry["username"] != "Manu" {
		t.Errorf("username = %q, want %q", entry["username"], "Manu")
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected 'time' field in JSON log output")
	}
}

func TestSetup_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelWarn)

	l.Info("dropped")
	l.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, `"level":"WARN"`) {
		t.Errorf("expected a WARN record, got %s", out)
	}
}

func TestSetupDefault_InstallsLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupDefault(&buf, slog.LevelDebug)
	slog.Debug("persist_failed", "key", "volley_users")

	if !strings.Contains(buf.String(), "volley_users") {
		t.Errorf("default logger not installed, got %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing to see")
}
