package stdout

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/crimson-sun/slackline/internal/model"
	"github.com/crimson-sun/slackline/internal/render"
	"github.com/crimson-sun/slackline/internal/slack"
)

func testEvent() model.LogEvent {
	return model.LogEvent{
		Timestamp: time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC),
		Level:     model.Error,
		Message:   "connection refused",
		Exception: &model.Exception{Type: "OpError", Message: "dial tcp: refused"},
	}
}

// captureStdout redirects os.Stdout to capture output.
func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestOutputCompactJSON(t *testing.T) {
	result := captureStdout(func() {
		out := New(false)
		out.Write(context.Background(), testEvent())
	})

	// Should be single line (NDJSON).
	lines := strings.Split(strings.TrimSpace(result), "\n")
	if len(lines) != 1 {
		t.Fatalf("compact JSON should be 1 line, got %d", len(lines))
	}

	var msg slack.Message
	if err := json.Unmarshal([]byte(result), &msg); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if msg.Text != "connection refused" {
		t.Errorf("Text = %q", msg.Text)
	}
	if len(msg.Attachments) != 2 {
		t.Fatalf("expected summary and exception attachments, got %d", len(msg.Attachments))
	}
}

func TestOutputPrettyJSON(t *testing.T) {
	var buf bytes.Buffer
	out := New(true, WithWriter(&buf))
	if err := out.Write(context.Background(), testEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := buf.String()
	if !strings.Contains(result, "\n  ") {
		t.Error("pretty JSON should contain indentation")
	}
	var msg slack.Message
	if err := json.Unmarshal([]byte(result), &msg); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
}

func TestOutputIdentity(t *testing.T) {
	var buf bytes.Buffer
	out := New(false, WithWriter(&buf), WithIdentity(render.Identity{Channel: "#dev"}))
	out.Write(context.Background(), testEvent())

	if !strings.Contains(buf.String(), `"channel":"#dev"`) {
		t.Errorf("expected channel in output: %s", buf.String())
	}
}

func TestOutputRenderErrorWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	out := New(false, WithWriter(&buf))
	ev := testEvent()
	ev.Level = model.Level(-1)
	if err := out.Write(context.Background(), ev); err == nil {
		t.Fatal("expected error")
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
