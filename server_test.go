package notetabs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pkt.systems/notetabs/core"
	"pkt.systems/notetabs/internal/eventbus"
	"pkt.systems/notetabs/internal/persist"
	"pkt.systems/notetabs/internal/settings"
	"pkt.systems/notetabs/schema"
)

func TestServerStopFlushesPendingState(t *testing.T) {
	slot := persist.NewMemorySlot()
	srv, err := New(ServerConfig{Service: schema.ServiceConfig{SaveDelay: time.Hour}}, ServerDeps{
		ServiceDeps: core.ServiceDeps{Slot: slot},
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := srv.Service().AddTab(ctx, schema.AddTabRequest{Content: "pending"}); err != nil {
		t.Fatalf("add tab: %v", err)
	}
	if slot.Writes() != 0 {
		t.Fatalf("expected debounced write to be pending")
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := srv.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	tabs, err := persist.ReadTabs(slot, schema.DefaultStateKey)
	if err != nil {
		t.Fatalf("read tabs: %v", err)
	}
	if len(tabs) != 2 || tabs[1].Content != "pending" {
		t.Fatalf("expected final flush to persist pending state, got %+v", tabs)
	}
	if err := srv.Stop(stopCtx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if err := srv.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestServerSubscribeReceivesTabAndSettingsEvents(t *testing.T) {
	prefs, err := settings.Open(filepath.Join(t.TempDir(), "settings.yaml"), nil)
	if err != nil {
		t.Fatalf("open settings: %v", err)
	}
	srv, err := New(ServerConfig{}, ServerDeps{Settings: prefs})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, unsubscribe := srv.Subscribe()
	defer unsubscribe()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer srv.Stop(context.Background())

	if _, err := srv.Service().AddTab(ctx, schema.AddTabRequest{}); err != nil {
		t.Fatalf("add tab: %v", err)
	}
	if _, err := prefs.Set("keep_window_open", "true"); err != nil {
		t.Fatalf("set setting: %v", err)
	}

	var sawTab, sawSettings bool
	timeout := time.After(5 * time.Second)
	for !sawTab || !sawSettings {
		select {
		case ev := <-events:
			switch ev.Type {
			case eventbus.EventTab:
				if ev.Tab.Type == schema.TabEventCreated {
					sawTab = true
				}
			case eventbus.EventSettings:
				if ev.Settings.KeepWindowOpen {
					sawSettings = true
				}
			}
		case <-timeout:
			t.Fatalf("timed out: tab=%v settings=%v", sawTab, sawSettings)
		}
	}
}

func TestNewRejectsWatchWithoutSettings(t *testing.T) {
	if _, err := New(ServerConfig{}, ServerDeps{}, WithSettingsWatch()); err == nil {
		t.Fatalf("expected error")
	}
}
