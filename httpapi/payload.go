package httpapi

import "pkt.systems/notetabs/schema"

// TabPayload is the wire form of a tab.
type TabPayload struct {
	ID           schema.TabID `json:"id"`
	Content      string       `json:"content"`
	Color        float64      `json:"color"`
	Title        string       `json:"title,omitempty"`
	Locked       bool         `json:"locked"`
	DisplayTitle string       `json:"display_title,omitempty"`
}

// newTabPayload converts a tab. A negative index omits the display title.
func newTabPayload(tab schema.Tab, index int) TabPayload {
	out := TabPayload{
		ID:      tab.ID,
		Content: tab.Content,
		Color:   tab.Color,
		Title:   tab.Title,
		Locked:  tab.Locked,
	}
	if index >= 0 {
		out.DisplayTitle = schema.DisplayTitle(tab, index)
	}
	return out
}

func newTabPayloads(tabs []schema.Tab) []TabPayload {
	out := make([]TabPayload, 0, len(tabs))
	for i, tab := range tabs {
		out = append(out, newTabPayload(tab, i))
	}
	return out
}

// TabsResponse is returned by GET /api/tabs.
type TabsResponse struct {
	Tabs       []TabPayload `json:"tabs"`
	SelectedID schema.TabID `json:"selected_id"`
	Version    uint64       `json:"version"`
}
