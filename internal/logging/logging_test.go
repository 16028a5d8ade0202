package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "warn", "json", false)

	logger.Info().Msg("hidden")
	logger.Warn().Str("chat_id", "abc").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON log line: %v", err)
	}
	if entry["message"] != "shown" || entry["chat_id"] != "abc" || entry["level"] != "warn" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "loud", "json", false)

	logger.Debug().Msg("debug")
	logger.Info().Msg("info")

	if strings.Contains(buf.String(), `"message":"debug"`) {
		t.Fatalf("debug should be filtered at info level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), `"message":"info"`) {
		t.Fatalf("expected info line, got %q", buf.String())
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("user_2abcdefghij", true); got != "user_2abcdefghij" {
		t.Fatalf("dev mode should not redact, got %q", got)
	}
	if got := Redact("short", false); got != "***" {
		t.Fatalf("expected short value to be masked, got %q", got)
	}
	if got := Redact("user_2abcdefghij", false); got != "user...ij" {
		t.Fatalf("unexpected redaction: %q", got)
	}
}
