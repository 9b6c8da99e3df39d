package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEV":     slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"prod":    slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in, slog.LevelInfo); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_Formats(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	t.Setenv("LOG_FORMAT", "json")
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo).Info("joined room", "room", "r1")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"room":"r1"`) {
		t.Fatalf("json output = %q", buf.String())
	}

	t.Setenv("LOG_FORMAT", "")
	buf.Reset()
	New(&buf, slog.LevelWarn).Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}
}

func TestPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, slog.LevelDebug)).With("component", "hub").WithGroup("conn")

	logger.Warn("send queue full", "id", "abc")
	out := buf.String()
	for _, want := range []string{"WARN", "send queue full", "component", "conn.id", "abc"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}
