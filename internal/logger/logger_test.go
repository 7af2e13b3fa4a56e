package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "json")

	log.Info().Msg("hidden")
	log.Warn().Str("question", "q1").Msg("judge call failed")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"question":"q1"`) {
		t.Fatalf("expected structured field, got %s", out)
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "loud", "json")
	log.Debug().Msg("debug line")
	log.Info().Msg("info line")

	out := buf.String()
	if strings.Contains(out, "debug line") || !strings.Contains(out, "info line") {
		t.Fatalf("expected info level fallback, got %s", out)
	}
}
