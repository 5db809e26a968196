package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestJSONOutputCarriesModule(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo, FormatJSON).Module("core")
	l.Info("channel created", "channel", 1)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["module"] != "core" {
		t.Fatalf("module attr = %v, want core", rec["module"])
	}
	if rec["msg"] != "channel created" {
		t.Fatalf("msg = %v", rec["msg"])
	}
	if rec["channel"] != float64(1) {
		t.Fatalf("channel attr = %v", rec["channel"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn, FormatText)
	l.Info("dropped")
	l.Warn("kept")
	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatal("info line should be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Fatal("warn line missing")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	var buf bytes.Buffer
	SetDefault(New(&buf, slog.LevelInfo, FormatText))
	Module("test").Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatal("default logger not replaced")
	}
	SetDefault(nil) // ignored
	if Default() == nil {
		t.Fatal("nil must not replace the default")
	}
}
