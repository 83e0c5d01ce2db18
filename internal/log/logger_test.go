package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConfigureWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf, Service: "test-svc", Level: "info"})

	L().Info().Str("k", "v").Msg("hello")

	line := strings.TrimSpace(buf.String())
	var decoded map[string]any
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("expected valid JSON line, got %q: %v", line, err)
	}
	if decoded["service"] != "test-svc" {
		t.Errorf("service = %v, want test-svc", decoded["service"])
	}
	if decoded["k"] != "v" {
		t.Errorf("k = %v, want v", decoded["k"])
	}
}

func TestSetLevelRejectsInvalid(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf})

	if err := SetLevel(nil, "tester", "not-a-level"); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestSetLevelAppliesValid(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf, Level: "info"})

	if err := SetLevel(nil, "tester", "debug"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
}

func TestAuditInfoIncludesEvent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf, Level: "error"}) // audit bypasses level gate

	AuditInfo(nil, "reaper.session_failed", "session marked failed", map[string]any{
		"session_id": "s1",
	})

	if !strings.Contains(buf.String(), "reaper.session_failed") {
		t.Fatalf("expected audit event in output, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), `"component":"audit"`) {
		t.Fatalf("expected audit component in output, got %q", buf.String())
	}
}
