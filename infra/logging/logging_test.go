package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestComponentField(t *testing.T) {
	var buf bytes.Buffer
	l := Component(New(&buf, "debug", false), "service")
	l.Debug().Uint64("seq", 7).Msg("applied")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", buf.String(), err)
	}
	if line["component"] != "service" || line["app"] != "matchbook" {
		t.Errorf("missing fields in %v", line)
	}
	if line["seq"] != float64(7) {
		t.Errorf("expected seq 7, got %v", line["seq"])
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "chatty", false)
	l.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug line written at fallback level: %q", buf.String())
	}
	l.Info().Msg("shown")
	if buf.Len() == 0 {
		t.Error("info line not written")
	}
}
