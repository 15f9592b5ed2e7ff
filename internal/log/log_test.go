package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetLevel(LevelInfo)

	SetLevel(LevelWarn)
	Info("hidden")
	Warn("shown", "section", "S01")
	Error("failed", errors.New("boom"), "path", "a b")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("INFO line logged at WARN level: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown section=S01") {
		t.Errorf("missing WARN line: %q", out)
	}
	if !strings.Contains(out, `[ERROR] failed err=boom path="a b"`) {
		t.Errorf("missing ERROR line: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":  LevelDebug,
		" WARN ": LevelWarn,
		"error":  LevelError,
		"":       LevelInfo,
		"loud":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
