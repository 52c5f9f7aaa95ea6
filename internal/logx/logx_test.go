package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"pkt.systems/notetabs/schema"
	"pkt.systems/pslog"
)

func newCaptureLogger(capture *logCapture) pslog.Logger {
	return pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
}

func TestWithSlotAddsFields(t *testing.T) {
	capture := &logCapture{}
	log := WithSlot(newCaptureLogger(capture), "bbolt", "")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["backend"] != "bbolt" {
		t.Fatalf("expected backend field, got %+v", entry)
	}
	if _, ok := entry["state_key"]; ok {
		t.Fatalf("did not expect state_key for backend-only slot")
	}
}

func TestWithTabAddsField(t *testing.T) {
	capture := &logCapture{}
	ctx := pslog.ContextWithLogger(context.Background(), newCaptureLogger(capture))
	log := WithTab(ctx, "tab1")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["tab"] != "tab1" {
		t.Fatalf("expected tab field, got %+v", entry)
	}
}

func TestWithTabSkipsDuplicateMarker(t *testing.T) {
	capture := &logCapture{}
	logger := newCaptureLogger(capture).With("tab", "tab1")
	ctx := ContextWithTabLogger(context.Background(), logger, "tab1")
	WithTab(ctx, "tab1").Info("hello")

	line := capture.buf.String()
	if n := bytes.Count([]byte(line), []byte(`"tab"`)); n != 1 {
		t.Fatalf("expected a single tab field, got %d in %s", n, line)
	}
}

func TestContextWithTabIgnoresEmpty(t *testing.T) {
	ctx := context.Background()
	if got := ContextWithTab(ctx, ""); got != ctx {
		t.Fatalf("expected context unchanged for empty tab id")
	}
	if tab, _ := ContextWithTab(ctx, "tab1").Value(tabKey).(schema.TabID); tab != "tab1" {
		t.Fatalf("expected tab marker, got %q", tab)
	}
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) firstEntry(t *testing.T) map[string]any {
	t.Helper()
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		idx = len(data)
	}
	line := bytes.TrimSpace(data[:idx])
	entry := map[string]any{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
