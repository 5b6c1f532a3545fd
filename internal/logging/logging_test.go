package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"warn+2", slog.LevelWarn + 2},
		{"", DefaultLevel},
		{"loud", DefaultLevel},
	}
	for _, c := range cases {
		if got := ParseLevel(c.in); got != c.want {
			t.Errorf("ParseLevel(%q): want %v, got %v", c.in, c.want, got)
		}
	}
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"text", FormatText},
		{" Text", FormatText},
		{"", DefaultFormat},
		{"yaml", DefaultFormat},
	}
	for _, c := range cases {
		if got := ParseFormat(c.in); got != c.want {
			t.Errorf("ParseFormat(%q): want %v, got %v", c.in, c.want, got)
		}
	}
}

func TestNewLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, WithLevel(slog.LevelError))
	log.Warn("quiet")
	if buf.Len() != 0 {
		t.Errorf("warning logged at error level: %q", buf.String())
	}
	log.Error("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Errorf("error not logged: %q", buf.String())
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, WithLevel(slog.LevelDebug), WithTime(false))
	log.Debug("new variable", slog.String("name", "x"))
	want := "level=DEBUG msg=\"new variable\" name=x\n"
	if got := buf.String(); got != want {
		t.Errorf("wrong output: want %q, got %q", want, got)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, WithFormat(FormatJSON), WithPretty(true))
	log.Warn("call depth exceeded", slog.Int("depth", 256))
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("output %q is not json: %v", buf.String(), err)
	}
	if m["level"] != "WARN" || m["msg"] != "call depth exceeded" || m["depth"] != 256.0 {
		t.Errorf("wrong fields: %v", m)
	}
	if _, ok := m["time"]; !ok {
		t.Errorf("no time in %v", m)
	}
}

func TestNewNil(t *testing.T) {
	log := New(nil)
	if log.Enabled(t.Context(), slog.LevelError) {
		t.Error("nil writer logger is enabled")
	}
}
