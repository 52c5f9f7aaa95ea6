package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"

	"pkt.systems/notetabs/internal/logx"
)

// Source renders the current tabs as an export document.
type Source interface {
	Export(ctx context.Context, w io.Writer) error
}

// DefaultFileName returns the file name used when a directory is given.
func DefaultFileName(now time.Time) string {
	return "notes-" + now.Format("2006-01-02") + ".txt"
}

// ToFile renders src into path and returns the resolved destination.
// Directories receive DefaultFileName. The file is replaced atomically.
func ToFile(ctx context.Context, src Source, path string) (string, error) {
	if src == nil {
		return "", errors.New("export: missing source")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("export: missing destination path")
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("export: expand %q: %w", path, err)
	}
	if info, err := os.Stat(expanded); err == nil && info.IsDir() {
		expanded = filepath.Join(expanded, DefaultFileName(time.Now()))
	}
	dir := filepath.Dir(expanded)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return "", fmt.Errorf("export: create temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := src.Export(ctx, tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("export: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return "", fmt.Errorf("export: chmod: %w", err)
	}
	if err := os.Rename(tmpName, expanded); err != nil {
		cleanup()
		return "", fmt.Errorf("export: rename: %w", err)
	}
	logx.Ctx(ctx).Info("export written", "path", expanded)
	return expanded, nil
}
