package persist

import (
	"pkt.systems/notetabs/schema"
)

// ReadTabs loads and decodes the tab list stored under key.
func ReadTabs(slot Slot, key string) ([]schema.Tab, error) {
	data, err := slot.Read(key)
	if err != nil {
		return nil, err
	}
	return DecodeTabs(data)
}

// WriteTabs encodes tabs and stores them under key.
func WriteTabs(slot Slot, key string, tabs []schema.Tab) error {
	data, err := EncodeTabs(tabs)
	if err != nil {
		return err
	}
	return slot.Write(key, data)
}
