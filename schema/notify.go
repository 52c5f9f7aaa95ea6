package schema

// TabEventType describes tab lifecycle or state changes.
type TabEventType string

const (
	// TabEventCreated indicates a tab was created.
	TabEventCreated TabEventType = "created"
	// TabEventRemoved indicates a tab was removed.
	TabEventRemoved TabEventType = "removed"
	// TabEventSelected indicates the selection moved.
	TabEventSelected TabEventType = "selected"
	// TabEventUpdated indicates a tab field changed.
	TabEventUpdated TabEventType = "updated"
	// TabEventLoaded indicates the store was hydrated at startup.
	TabEventLoaded TabEventType = "loaded"
)

// TabEvent represents a change to a tab or the tab list.
type TabEvent struct {
	Type     TabEventType
	Tab      Tab
	Selected TabID
	Version  uint64
}
