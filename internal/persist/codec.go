package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pkt.systems/notetabs/schema"
)

// ErrCorrupt marks slot contents that cannot be decoded into a tab list.
var ErrCorrupt = errors.New("corrupt tab state")

// tabRecord is the on-disk shape of a tab. Field names match the layout
// written by earlier releases so existing slots keep loading.
type tabRecord struct {
	ID       string  `json:"id"`
	Content  string  `json:"content"`
	Color    float64 `json:"color"`
	Title    string  `json:"title,omitempty"`
	IsLocked bool    `json:"isLocked"`
}

// EncodeTabs serializes tabs in store order.
func EncodeTabs(tabs []schema.Tab) ([]byte, error) {
	records := make([]tabRecord, 0, len(tabs))
	for _, tab := range tabs {
		records = append(records, tabRecord{
			ID:       string(tab.ID),
			Content:  tab.Content,
			Color:    tab.Color,
			Title:    schema.NormalizeTitle(tab.Title),
			IsLocked: tab.Locked,
		})
	}
	return json.Marshal(records)
}

// DecodeTabs parses an encoded tab list. Unknown fields are ignored and
// missing optional fields take their zero value (unlocked, hue 0, no title).
// Any structural problem yields an error wrapping ErrCorrupt.
func DecodeTabs(data []byte) ([]schema.Tab, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrCorrupt)
	}
	var records []tabRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	tabs := make([]schema.Tab, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: tab %d has no id", ErrCorrupt, i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate tab id %q", ErrCorrupt, id)
		}
		seen[id] = struct{}{}
		tabs = append(tabs, schema.Tab{
			ID:      schema.TabID(id),
			Content: rec.Content,
			Color:   schema.WrapHue(rec.Color),
			Title:   schema.NormalizeTitle(rec.Title),
			Locked:  rec.IsLocked,
		})
	}
	return tabs, nil
}
