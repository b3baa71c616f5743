package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVs_RedactsAndHashes(t *testing.T) {
	out := sanitizeKVs([]any{"api_key", "sk-live", "user_id", "u-1", "agent", "planning"})
	if len(out) != 6 {
		t.Fatalf("len=%d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("api_key not redacted: %v", out[1])
	}
	h, ok := out[3].(string)
	if !ok || !strings.HasPrefix(h, "hash:") || strings.Contains(h, "u-1") {
		t.Fatalf("user_id not hashed: %v", out[3])
	}
	if out[5] != "planning" {
		t.Fatalf("plain value altered: %v", out[5])
	}
}

func TestSanitizeKVs_OddLength(t *testing.T) {
	out := sanitizeKVs([]any{"agent", "monitoring", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("out=%v", out)
	}
}

func TestNew_TestModeIsNop(t *testing.T) {
	l, err := New("test")
	if err != nil {
		t.Fatal(err)
	}
	l.With("component", "x").Info("hello", "k", "v")
}
