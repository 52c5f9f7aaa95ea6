package core

import "pkt.systems/notetabs/schema"

// TabForShortcut maps shortcut number n (1..9) to the nth tab in order.
func TabForShortcut(tabs []schema.Tab, n int) (schema.TabID, bool) {
	if n < 1 || n > schema.MaxShortcut || n > len(tabs) {
		return "", false
	}
	return tabs[n-1].ID, true
}
