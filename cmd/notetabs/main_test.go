package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "config_version: 1\n" +
		"state_dir: " + filepath.Join(dir, "state") + "\n" +
		"settings_file: " + filepath.Join(dir, "settings.yaml") + "\n" +
		"state:\n  backend: file\n  key: savedNotes\n  save_delay_ms: 1000\n" +
		"export:\n  default_path: " + filepath.Join(dir, "out") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, cfgPath string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, cfgPath, args...)
	if err != nil {
		t.Fatalf("notetabs %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestTabsListSeedsDefaultTab(t *testing.T) {
	cfg := writeTestConfig(t)
	out := mustRun(t, cfg, "tabs", "list")
	if !strings.Contains(out, "Tab 1") {
		t.Fatalf("expected seeded default tab, got:\n%s", out)
	}
	if !strings.Contains(out, "*1") {
		t.Fatalf("expected first tab marked selected, got:\n%s", out)
	}
}

func TestTabsAddPersistsAcrossInvocations(t *testing.T) {
	cfg := writeTestConfig(t)
	mustRun(t, cfg, "tabs", "add", "--title", "Groceries", "milk\neggs")
	out := mustRun(t, cfg, "tabs", "list")
	if !strings.Contains(out, "Groceries") {
		t.Fatalf("expected added tab after reopen, got:\n%s", out)
	}
}

func TestTabsRemoveRespectsLockAndLastTab(t *testing.T) {
	cfg := writeTestConfig(t)
	out := mustRun(t, cfg, "tabs", "rm", "1")
	if !strings.Contains(out, "last tab") {
		t.Fatalf("expected last-tab refusal, got %q", out)
	}

	mustRun(t, cfg, "tabs", "add", "second")
	mustRun(t, cfg, "tabs", "lock", "2")
	out = mustRun(t, cfg, "tabs", "rm", "2")
	if !strings.Contains(out, "locked") {
		t.Fatalf("expected locked refusal, got %q", out)
	}
	mustRun(t, cfg, "tabs", "unlock", "2")
	out = mustRun(t, cfg, "tabs", "rm", "2")
	if !strings.HasPrefix(out, "removed ") {
		t.Fatalf("expected removal, got %q", out)
	}
}

func TestTabsUnknownReference(t *testing.T) {
	cfg := writeTestConfig(t)
	if _, err := runCLI(t, cfg, "tabs", "title", "7", "nope"); err == nil {
		t.Fatalf("expected error for missing position")
	}
	if _, err := runCLI(t, cfg, "tabs", "select", "no-such-id"); err == nil {
		t.Fatalf("expected error for unknown id")
	}
}

func TestTabsShortcutOutOfRange(t *testing.T) {
	cfg := writeTestConfig(t)
	out := mustRun(t, cfg, "tabs", "shortcut", "5")
	if !strings.Contains(out, "has no tab") {
		t.Fatalf("expected no-op message, got %q", out)
	}
}

func TestTabsSelectSaysSelectionIsNotSaved(t *testing.T) {
	cfg := writeTestConfig(t)
	mustRun(t, cfg, "tabs", "add", "--title", "Second", "body")
	out := mustRun(t, cfg, "tabs", "select", "2")
	if !strings.Contains(out, "selected 2: Second") || !strings.Contains(out, selectionNote) {
		t.Fatalf("expected selected tab and note, got %q", out)
	}
	out = mustRun(t, cfg, "tabs", "shortcut", "1")
	if !strings.Contains(out, "selected 1: ") || !strings.Contains(out, selectionNote) {
		t.Fatalf("expected shortcut selection and note, got %q", out)
	}
	out = mustRun(t, cfg, "tabs", "list")
	if !strings.Contains(out, "*1") {
		t.Fatalf("expected first tab selected on the next start, got:\n%s", out)
	}
}

func TestParseHue(t *testing.T) {
	if hue, err := parseHue("#4"); err != nil || hue != 0.33 {
		t.Fatalf("parseHue(#4) = %v, %v", hue, err)
	}
	if hue, err := parseHue("0.5"); err != nil || hue != 0.5 {
		t.Fatalf("parseHue(0.5) = %v, %v", hue, err)
	}
	for _, bad := range []string{"1", "-0.1", "#10", "blue"} {
		if _, err := parseHue(bad); err == nil {
			t.Fatalf("parseHue(%q) expected error", bad)
		}
	}
}

func TestExportToDirectory(t *testing.T) {
	cfg := writeTestConfig(t)
	mustRun(t, cfg, "tabs", "add", "--title", "Todo", "ship it")
	dir := t.TempDir()
	out := strings.TrimSpace(mustRun(t, cfg, "export", dir))
	if filepath.Dir(out) != dir || !strings.HasPrefix(filepath.Base(out), "notes-") {
		t.Fatalf("unexpected export path %q", out)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "===== Todo =====\nship it\n\n") {
		t.Fatalf("unexpected export body:\n%s", data)
	}
}

func TestExportStdout(t *testing.T) {
	cfg := writeTestConfig(t)
	out := mustRun(t, cfg, "export", "--stdout")
	if !strings.HasPrefix(out, "===== Tab 1 =====\n") {
		t.Fatalf("unexpected export:\n%s", out)
	}
}

func TestSettingsSetAndShow(t *testing.T) {
	cfg := writeTestConfig(t)
	out := mustRun(t, cfg, "settings", "set", "editor_font_size", "40")
	if strings.TrimSpace(out) != "editor_font_size = 32" {
		t.Fatalf("expected clamped font size, got %q", out)
	}
	out = mustRun(t, cfg, "settings", "show")
	if !strings.Contains(out, "32") {
		t.Fatalf("expected persisted font size, got:\n%s", out)
	}
	if _, err := runCLI(t, cfg, "settings", "set", "theme", "dark"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	mustRun(t, path, "config", "init")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config written: %v", err)
	}
	if _, err := runCLI(t, path, "config", "init"); err == nil {
		t.Fatalf("expected refusal without --force")
	}
	mustRun(t, path, "config", "init", "--force")
}
