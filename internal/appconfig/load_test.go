package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pkt.systems/notetabs/schema"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.State.Backend != "file" {
		t.Fatalf("expected file backend, got %q", cfg.State.Backend)
	}
	svc := cfg.ServiceConfig()
	if svc.StateKey != schema.DefaultStateKey || svc.SaveDelay != time.Second {
		t.Fatalf("unexpected service config: %+v", svc)
	}
	if strings.HasPrefix(cfg.Export.DefaultPath, "~") {
		t.Fatalf("expected export path to be expanded, got %q", cfg.Export.DefaultPath)
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("NOTES_ROOT", "/srv/notes")
	path := writeConfig(t, `
config_version: 1
state_dir: $NOTES_ROOT/state
state:
  backend: bbolt
  key: work
  save_delay_ms: 250
http:
  addr: 127.0.0.1:9999
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StateDir != "/srv/notes/state" {
		t.Fatalf("expected expanded state dir, got %q", cfg.StateDir)
	}
	if cfg.State.Backend != "bbolt" || cfg.State.Key != "work" {
		t.Fatalf("unexpected state config: %+v", cfg.State)
	}
	if cfg.ServiceConfig().SaveDelay != 250*time.Millisecond {
		t.Fatalf("expected 250ms delay, got %v", cfg.ServiceConfig().SaveDelay)
	}
	if cfg.HTTP.Addr != "127.0.0.1:9999" {
		t.Fatalf("unexpected http addr %q", cfg.HTTP.Addr)
	}
}

func TestLoadRejectsUnsupportedConfigVersion(t *testing.T) {
	path := writeConfig(t, `
config_version: 7
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported config_version") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRequiresConfigVersion(t *testing.T) {
	path := writeConfig(t, `
state_dir: /tmp/state
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "config_version is required") {
		t.Fatalf("expected missing config_version error, got %v", err)
	}
}

func TestLoadRejectsUnsupportedBackend(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
state:
  backend: sqlite
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported state.backend") {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestLoadRejectsNegativeDelay(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
state:
  save_delay_ms: -5
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "save_delay_ms") {
		t.Fatalf("expected delay error, got %v", err)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("FOO", "bar")
	value := expandEnv("$FOO/$UID/$GID/$MISSING")
	if !strings.HasPrefix(value, "bar/") {
		t.Fatalf("expected env expansion, got %q", value)
	}
	if strings.Contains(value, "$UID") || strings.Contains(value, "$GID") {
		t.Fatalf("expected UID/GID expansion, got %q", value)
	}
	if !strings.HasSuffix(value, "/$MISSING") {
		t.Fatalf("expected missing vars to remain, got %q", value)
	}
}

func TestWriteDefaultRespectsOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	written, err := WriteDefault(path, false)
	if err != nil {
		t.Fatalf("write default: %v", err)
	}
	if written != path {
		t.Fatalf("expected path %q, got %q", path, written)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("expected written default to load: %v", err)
	}
	if _, err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if _, err := WriteDefault(path, true); err != nil {
		t.Fatalf("expected overwrite to succeed: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
