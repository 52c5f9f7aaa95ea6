package core

import (
	"testing"

	"pkt.systems/notetabs/schema"
)

func TestTabForShortcut(t *testing.T) {
	tabs := make([]schema.Tab, 12)
	for i := range tabs {
		tabs[i].ID = schema.TabID(string(rune('a' + i)))
	}
	if id, ok := TabForShortcut(tabs, 1); !ok || id != "a" {
		t.Fatalf("expected shortcut 1 to map to a, got %q %v", id, ok)
	}
	if id, ok := TabForShortcut(tabs, 9); !ok || id != "i" {
		t.Fatalf("expected shortcut 9 to map to i, got %q %v", id, ok)
	}
	for _, n := range []int{0, 10, -3} {
		if _, ok := TabForShortcut(tabs, n); ok {
			t.Fatalf("expected shortcut %d to be ignored", n)
		}
	}
	if _, ok := TabForShortcut(tabs[:2], 3); ok {
		t.Fatalf("expected shortcut beyond tab count to be ignored")
	}
}
