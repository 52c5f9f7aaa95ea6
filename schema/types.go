package schema

// TabID identifies a note tab. Values are opaque and never reused.
type TabID string

// Tab is a read-only copy of a note tab as held by the tab store.
type Tab struct {
	ID      TabID
	Content string
	// Color is a hue in [0, 1).
	Color float64
	// Title is the explicit label; empty means the display title is derived.
	Title  string
	Locked bool
}

// Palette lists the hue presets offered by color pickers.
var Palette = []float64{0.0, 0.06, 0.12, 0.17, 0.33, 0.5, 0.6, 0.7, 0.8, 0.9}

// MaxShortcut is the highest tab number reachable through a numeric shortcut.
const MaxShortcut = 9
