package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/notetabs/internal/logx"
	"pkt.systems/notetabs/internal/settings"
	"pkt.systems/notetabs/schema"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq        uint64             `json:"seq"`
	Type       string             `json:"type"`
	TabEvent   string             `json:"tab_event,omitempty"`
	Tab        *TabPayload        `json:"tab,omitempty"`
	SelectedID schema.TabID       `json:"selected_id,omitempty"`
	Version    uint64             `json:"version,omitempty"`
	Settings   *settings.Settings `json:"settings,omitempty"`
	Snapshot   *SnapshotPayload   `json:"snapshot,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

// SnapshotPayload seeds client state on connect.
type SnapshotPayload struct {
	Tabs       []TabPayload      `json:"tabs"`
	SelectedID schema.TabID      `json:"selected_id"`
	Version    uint64            `json:"version"`
	Settings   settings.Settings `json:"settings"`
}

// Hub broadcasts events to stream subscribers and keeps a bounded history
// for Last-Event-ID replay.
type Hub struct {
	mu          sync.Mutex
	seq         uint64
	history     []StreamEvent
	subs        map[chan StreamEvent]struct{}
	historySize int
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = 1000
	}
	return &Hub{
		subs:        make(map[chan StreamEvent]struct{}),
		historySize: historySize,
	}
}

// OnTabEvent implements core.EventSink.
func (h *Hub) OnTabEvent(event schema.TabEvent) {
	log := logx.WithTab(context.Background(), event.Tab.ID)
	log.Trace("hub tab event", "type", event.Type, "selected", event.Selected, "version", event.Version)
	stream := StreamEvent{
		Type:       "tab",
		TabEvent:   string(event.Type),
		SelectedID: event.Selected,
		Version:    event.Version,
		Timestamp:  time.Now(),
	}
	if event.Tab.ID != "" {
		tab := newTabPayload(event.Tab, -1)
		stream.Tab = &tab
	}
	h.publish(stream)
}

// OnSettings publishes a settings change.
func (h *Hub) OnSettings(s settings.Settings) {
	logx.Ctx(context.Background()).Trace("hub settings event")
	h.publish(StreamEvent{
		Type:      "settings",
		Settings:  &s,
		Timestamp: time.Now(),
	})
}

// Subscribe registers a subscriber.
func (h *Hub) Subscribe() (<-chan StreamEvent, func(), uint64, []StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan StreamEvent, 256)
	h.subs[ch] = struct{}{}
	history := append([]StreamEvent(nil), h.history...)
	seq := h.seq
	log := logx.Ctx(context.Background())
	log.Info("hub subscribe", "subs", len(h.subs), "history", len(history))
	unsub := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		remaining := len(h.subs)
		h.mu.Unlock()
		log.Info("hub unsubscribe", "subs", remaining)
	}
	return ch, unsub, seq, history
}

func (h *Hub) publish(event StreamEvent) {
	h.mu.Lock()
	h.seq++
	event.Seq = h.seq
	h.history = append(h.history, event)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}
	// Sends are non-blocking, so holding the lock keeps them ordered against
	// unsubscribe closing the channel.
	dropped := 0
	for sub := range h.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	h.mu.Unlock()

	if dropped > 0 {
		logx.Ctx(context.Background()).Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}
