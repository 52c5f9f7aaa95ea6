package settings

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   Settings
		want Settings
	}{
		{"defaults", Settings{}, Settings{EditorFontName: DefaultFontName, EditorFontSize: DefaultFontSize}},
		{"unknown-font", Settings{EditorFontName: "Comic Sans", EditorFontSize: 12}, Settings{EditorFontName: DefaultFontName, EditorFontSize: 12}},
		{"too-small", Settings{EditorFontName: "Menlo", EditorFontSize: 4}, Settings{EditorFontName: "Menlo", EditorFontSize: MinFontSize}},
		{"too-large", Settings{EditorFontName: "Monaco", EditorFontSize: 99}, Settings{EditorFontName: "Monaco", EditorFontSize: MaxFontSize}},
		{"rounds", Settings{EditorFontName: "__system__", EditorFontSize: 15.6, KeepWindowOpen: true}, Settings{EditorFontName: "__system__", EditorFontSize: 16, KeepWindowOpen: true}},
	}
	for _, tc := range cases {
		if got := tc.in.Normalize(); got != tc.want {
			t.Fatalf("case %q: expected %+v, got %+v", tc.name, tc.want, got)
		}
	}
}

func TestApply(t *testing.T) {
	s := Defaults()
	s, err := Apply(s, "keep_window_open", "true")
	if err != nil || !s.KeepWindowOpen {
		t.Fatalf("keep_window_open: %+v %v", s, err)
	}
	s, err = Apply(s, "editor_font_size", "40")
	if err != nil || s.EditorFontSize != MaxFontSize {
		t.Fatalf("editor_font_size: %+v %v", s, err)
	}
	s, err = Apply(s, "editor_font_name", "Courier New")
	if err != nil || s.EditorFontName != "Courier New" {
		t.Fatalf("editor_font_name: %+v %v", s, err)
	}
	if _, err := Apply(s, "editor_font_name", "Papyrus"); err == nil {
		t.Fatalf("expected unknown font error")
	}
	if _, err := Apply(s, "theme", "dark"); err == nil || !strings.Contains(err.Error(), "unknown setting") {
		t.Fatalf("expected unknown setting error, got %v", err)
	}
	if v, ok := s.Lookup("editor_font_size"); !ok || v != "32" {
		t.Fatalf("expected lookup 32, got %q %v", v, ok)
	}
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != Defaults() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	want := Settings{KeepWindowOpen: true, EditorFontName: "Menlo", EditorFontSize: 18}
	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 perms, got %v", info.Mode().Perm())
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestLoadClampsStoredValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("editor_font_size: 3\neditor_font_name: Wingdings\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.EditorFontSize != MinFontSize || got.EditorFontName != DefaultFontName {
		t.Fatalf("expected clamped settings, got %+v", got)
	}
}

func TestManagerSetNotifiesSubscribers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	mgr, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ch, cancel := mgr.Subscribe(1)
	defer cancel()
	if _, err := mgr.Set("editor_font_size", "20"); err != nil {
		t.Fatalf("set: %v", err)
	}
	select {
	case got := <-ch:
		if got.EditorFontSize != 20 {
			t.Fatalf("expected font size 20, got %+v", got)
		}
	default:
		t.Fatalf("expected a settings notification")
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if reloaded.EditorFontSize != 20 {
		t.Fatalf("expected saved font size 20, got %+v", reloaded)
	}
}

func TestManagerWatchPicksUpExternalEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	mgr, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Watch(ctx); err != nil {
		t.Fatalf("watch: %v", err)
	}
	ch, unsubscribe := mgr.Subscribe(4)
	defer unsubscribe()

	external := Settings{KeepWindowOpen: true, EditorFontName: "Monaco", EditorFontSize: 22}
	if err := Save(path, external); err != nil {
		t.Fatalf("external save: %v", err)
	}
	select {
	case got := <-ch:
		if got != external {
			t.Fatalf("expected %+v, got %+v", external, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for reload")
	}
	if mgr.Get() != external {
		t.Fatalf("expected manager to hold reloaded settings")
	}
}
