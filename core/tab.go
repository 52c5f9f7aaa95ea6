package core

import "pkt.systems/notetabs/schema"

// tab is the store-owned state of a single note.
type tab struct {
	ID      schema.TabID
	Content string
	Color   float64
	Title   string
	Locked  bool
}

func tabFromSnapshot(snap schema.Tab) *tab {
	return &tab{
		ID:      snap.ID,
		Content: snap.Content,
		Color:   snap.Color,
		Title:   schema.NormalizeTitle(snap.Title),
		Locked:  snap.Locked,
	}
}

// Snapshot returns a caller-owned copy of the tab.
func (t *tab) Snapshot() schema.Tab {
	return schema.Tab{
		ID:      t.ID,
		Content: t.Content,
		Color:   t.Color,
		Title:   t.Title,
		Locked:  t.Locked,
	}
}
