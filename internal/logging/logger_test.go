package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})

	logger.Info("session started", "session_id", "s1")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if record["msg"] != "session started" || record["session_id"] != "s1" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "text", Output: &buf})

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info record leaked through warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn record missing")
	}
}

func TestSanitizer_RedactsBearerTokens(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "text", Output: &buf})

	logger.Info("vendor call failed", "header", "Bearer abcdefghijklmnopqrstuvwxyz123456")

	out := buf.String()
	if strings.Contains(out, "abcdefghijklmnopqrstuvwxyz123456") {
		t.Fatalf("token leaked: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Fatalf("expected redaction marker: %s", out)
	}
}

func TestSanitizer_AddPattern(t *testing.T) {
	s := NewSanitizer()
	if err := s.AddPattern(`GUID-[0-9a-f]+`); err != nil {
		t.Fatalf("AddPattern: %v", err)
	}
	if got := s.Sanitize("model GUID-deadbeef created"); strings.Contains(got, "deadbeef") {
		t.Fatalf("custom pattern not applied: %s", got)
	}
	if err := s.AddPattern(`([`); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestWithSession(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf}).WithSession("s1")

	logger.Info("x")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("bad output: %v", err)
	}
	if record["session_id"] != "s1" {
		t.Fatalf("expected session_id attr, got %v", record)
	}
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	logger.Info("goes nowhere") // must not panic
	if logger.Sanitize("plain") != "plain" {
		t.Fatal("nop sanitizer should pass plain text")
	}
}
