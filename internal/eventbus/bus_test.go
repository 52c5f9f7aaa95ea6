package eventbus

import (
	"testing"
	"time"

	"pkt.systems/notetabs/internal/settings"
	"pkt.systems/notetabs/schema"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe()
	defer cancel()

	event := schema.TabEvent{Type: schema.TabEventCreated, Tab: schema.Tab{ID: "tab1"}, Selected: "tab1", Version: 3}
	bus.OnTabEvent(event)

	select {
	case got := <-ch:
		if got.Type != EventTab {
			t.Fatalf("expected tab event, got %v", got.Type)
		}
		if got.Tab.Tab.ID != "tab1" || got.Tab.Version != 3 {
			t.Fatalf("unexpected payload: %+v", got.Tab)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for event")
	}
}

func TestSettingsEvent(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.OnSettings(settings.Settings{EditorFontName: "Menlo", EditorFontSize: 12})
	select {
	case got := <-ch:
		if got.Type != EventSettings || got.Settings.EditorFontName != "Menlo" {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for event")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe()
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
}

func TestPublishDoesNotBlockWhenFull(t *testing.T) {
	bus := New(nil)
	bus.depth = 1
	_, cancel := bus.Subscribe()
	defer cancel()

	var sendCh chan Event
	bus.mu.Lock()
	for ch := range bus.subs {
		sendCh = ch
		break
	}
	bus.mu.Unlock()
	if sendCh == nil {
		t.Fatalf("expected subscriber channel")
	}
	sendCh <- Event{Type: EventTab}
	done := make(chan struct{})
	go func() {
		bus.OnTabEvent(schema.TabEvent{Type: schema.TabEventUpdated})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("publish blocked on full channel")
	}
}
