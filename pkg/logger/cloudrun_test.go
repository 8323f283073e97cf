package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestCloudRunHandlerWritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newCloudRunHandler(slog.LevelInfo, &buf)).With("request_id", "req-1")

	log.Warn("synthesis failed", "provider", "cartesia", "error", errors.New("status 500"))

	var entry struct {
		Severity string         `json:"severity"`
		Message  string         `json:"message"`
		Data     map[string]any `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("entry is not JSON: %v (%s)", err, buf.String())
	}
	if entry.Severity != "WARNING" || entry.Message != "synthesis failed" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Data["request_id"] != "req-1" || entry.Data["provider"] != "cartesia" {
		t.Fatalf("missing attrs: %+v", entry.Data)
	}
	if entry.Data["error"] != "status 500" {
		t.Fatalf("error attr not rendered as text: %#v", entry.Data["error"])
	}
}

func TestCloudRunHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newCloudRunHandler(slog.LevelWarn, &buf))

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info record should be filtered, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
