package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut := log.Writer()
	prevFlags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
		{"  error  ", LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLogLevelConstants(t *testing.T) {
	levels := []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError}
	for i := 0; i < len(levels)-1; i++ {
		if levels[i] >= levels[i+1] {
			t.Errorf("Log levels should be in ascending order: %v >= %v", levels[i], levels[i+1])
		}
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(99), "unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("LogLevel.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorAlwaysLogged(t *testing.T) {
	buf := captureLog(t)

	Error("transcode failed: %s", "exit 1")

	if !strings.Contains(buf.String(), "[ERROR] transcode failed: exit 1") {
		t.Errorf("unexpected log output: %q", buf.String())
	}
}

func TestForJobPrefix(t *testing.T) {
	buf := captureLog(t)

	l := ForJob("0123456789abcdef")
	l.Error("cleanup of %d paths failed", 2)

	out := buf.String()
	if !strings.Contains(out, "[ERROR] job=01234567 cleanup of 2 paths failed") {
		t.Errorf("unexpected job log output: %q", out)
	}
}

func TestForJobShortID(t *testing.T) {
	buf := captureLog(t)

	ForJob("abc").Warn("x")

	if !strings.Contains(buf.String(), "job=abc x") {
		t.Errorf("short ids should be kept whole, got %q", buf.String())
	}
}

func TestLoggingFunctionsDoNotPanic(t *testing.T) {
	captureLog(t)
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("logging panicked: %v", r)
		}
	}()

	Debug("test %s %d", "message", 123)
	Info("test message")
	Warn("test message")
	Printf("plain %d", 1)
	ForJob("id").Debug("debug")
	ForJob("id").Info("info")
}

func TestSetLevel(t *testing.T) {
	prev := GetLevel()
	t.Cleanup(func() { SetLevel(prev) })

	buf := captureLog(t)

	SetLevel(LevelError)
	Warn("hidden")
	if buf.Len() != 0 {
		t.Errorf("warn logged at error level: %q", buf.String())
	}

	SetLevel(LevelDebug)
	if !IsDebugEnabled() {
		t.Error("IsDebugEnabled() = false after SetLevel(LevelDebug)")
	}
}
