package export

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type staticSource struct {
	text string
	err  error
}

func (s staticSource) Export(_ context.Context, w io.Writer) error {
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, s.text)
	return err
}

func TestToFileWritesDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.txt")
	got, err := ToFile(context.Background(), staticSource{text: "===== Tab 1 =====\nhi\n\n"}, path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if got != path {
		t.Fatalf("expected %q, got %q", path, got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "===== Tab 1 =====\nhi\n\n" {
		t.Fatalf("unexpected export content %q", data)
	}
}

func TestToFileDirectoryUsesDefaultName(t *testing.T) {
	dir := t.TempDir()
	got, err := ToFile(context.Background(), staticSource{text: "x"}, dir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Dir(got) != dir || !strings.HasPrefix(filepath.Base(got), "notes-") {
		t.Fatalf("unexpected destination %q", got)
	}
}

func TestToFileSurfacesSourceError(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("boom")
	if _, err := ToFile(context.Background(), staticSource{err: boom}, filepath.Join(dir, "out.txt")); !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected temp file cleanup, found %d entries", len(entries))
	}
}

func TestToFileRejectsUnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	if _, err := ToFile(context.Background(), staticSource{text: "x"}, filepath.Join(blocker, "out.txt")); err == nil {
		t.Fatalf("expected error when parent is a file")
	}
	if _, err := ToFile(context.Background(), staticSource{}, "  "); err == nil {
		t.Fatalf("expected error for blank path")
	}
}

func TestDefaultFileName(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	if got := DefaultFileName(now); got != "notes-2024-03-09.txt" {
		t.Fatalf("unexpected default name %q", got)
	}
}
