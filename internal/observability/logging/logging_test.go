package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewHonorsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Writer: &buf})

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("expected info below warn to be dropped, got %q", buf.String())
	}

	logger.Warn("emitted")
	if !strings.Contains(buf.String(), "emitted") {
		t.Fatalf("expected warn to be emitted, got %q", buf.String())
	}
}

func TestNewDefaultsToJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Config{Writer: &buf})
	logger.Info("hello", "component", "test")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" || entry["component"] != "test" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewTextFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Config{Format: "text", Writer: &buf})
	logger.Info("hello")

	if !strings.Contains(buf.String(), "msg=hello") {
		t.Fatalf("expected text output, got %q", buf.String())
	}
}

func TestWithContextAnnotatesIDs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Config{Writer: &buf})

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithVideoID(ctx, "video-id")

	WithContext(ctx, logger).Info("annotated")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry["request_id"] != "req-1" || entry["video_id"] != "video-id" {
		t.Fatalf("expected ids on entry, got %v", entry)
	}
}

func TestContextHelpersIgnoreEmptyValues(t *testing.T) {
	t.Parallel()

	ctx := ContextWithRequestID(context.Background(), "  ")
	if _, ok := RequestIDFromContext(ctx); ok {
		t.Fatal("expected blank request id to be dropped")
	}

	ctx = ContextWithVideoID(ctx, "")
	if _, ok := VideoIDFromContext(ctx); ok {
		t.Fatal("expected empty video id to be dropped")
	}
}

func TestLoggerRoundTripsThroughContext(t *testing.T) {
	t.Parallel()

	logger := New(Config{})
	ctx := ContextWithLogger(context.Background(), logger)
	if got := LoggerFromContext(ctx); got != logger {
		t.Fatal("expected the stored logger back")
	}
	if got := LoggerFromContext(context.Background()); got != nil {
		t.Fatal("expected nil without a stored logger")
	}
}
