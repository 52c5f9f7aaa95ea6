package core

import (
	"pkt.systems/notetabs/internal/persist"
	"pkt.systems/notetabs/schema"
	"pkt.systems/pslog"
)

// ServiceDeps captures optional dependencies for the core service.
type ServiceDeps struct {
	// Slot is the durable store for the tab list. The service closes it on
	// Close. Nil selects an in-memory slot.
	Slot      persist.Slot
	EventSink EventSink
	Logger    pslog.Logger
	Clock     Clock
	NewID     func() schema.TabID
}
