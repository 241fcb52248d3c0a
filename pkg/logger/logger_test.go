package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warning", WARN},
		{"warn", WARN},
		{"error", ERROR},
		{"", INFO},
		{"verbose", INFO},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Fatalf("parseLogLevel(%q): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestAppLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("warn", &buf)

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("shown warn", "page", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug/info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "WARN: shown warn page=3") {
		t.Fatalf("expected warn line with fields, got %q", out)
	}
}

func TestAppLogger_WithBindsFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerWithWriter("debug", &buf)
	child := base.With("session_id", "s-1")

	child.Error("write failed", errors.New("boom"), "document_id", "doc-1")

	out := buf.String()
	if !strings.Contains(out, "session_id=s-1 error=boom document_id=doc-1") {
		t.Fatalf("expected bound fields before call fields, got %q", out)
	}

	buf.Reset()
	base.Info("plain")
	if strings.Contains(buf.String(), "session_id") {
		t.Fatalf("expected parent logger to stay unbound, got %q", buf.String())
	}
}
