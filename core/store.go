package core

import "pkt.systems/notetabs/schema"

// store is the ordered tab list plus selection. It is not safe for
// concurrent use; the service mutex guards it.
type store struct {
	tabs     []*tab
	selected schema.TabID
	version  uint64
}

// newStore hydrates a store from decoded tabs. Entries without an id or
// with a duplicate id are dropped. An empty result seeds one default tab.
// The first tab starts selected.
func newStore(decoded []schema.Tab, newID func() schema.TabID) *store {
	s := &store{}
	seen := make(map[schema.TabID]struct{}, len(decoded))
	for _, snap := range decoded {
		if snap.ID == "" {
			continue
		}
		if _, ok := seen[snap.ID]; ok {
			continue
		}
		seen[snap.ID] = struct{}{}
		s.tabs = append(s.tabs, tabFromSnapshot(snap))
	}
	if len(s.tabs) == 0 {
		s.tabs = append(s.tabs, &tab{ID: newID()})
	}
	s.selected = s.tabs[0].ID
	return s
}

func (s *store) index(id schema.TabID) int {
	for i, t := range s.tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *store) get(id schema.TabID) *tab {
	if idx := s.index(id); idx >= 0 {
		return s.tabs[idx]
	}
	return nil
}

// appendTab adds t at the end and selects it.
func (s *store) appendTab(t *tab) {
	s.tabs = append(s.tabs, t)
	s.selected = t.ID
	s.version++
}

// remove deletes the tab with id. The last remaining tab and locked tabs
// cannot be removed. Removing the selected tab selects the first remaining
// tab.
func (s *store) remove(id schema.TabID) (*tab, error) {
	if len(s.tabs) <= 1 {
		return nil, schema.ErrLastTab
	}
	idx := s.index(id)
	if idx < 0 {
		return nil, schema.ErrTabNotFound
	}
	removed := s.tabs[idx]
	if removed.Locked {
		return nil, schema.ErrTabLocked
	}
	next := make([]*tab, 0, len(s.tabs)-1)
	next = append(next, s.tabs[:idx]...)
	next = append(next, s.tabs[idx+1:]...)
	s.tabs = next
	if s.selected == id {
		s.selected = s.tabs[0].ID
	}
	s.version++
	return removed, nil
}

// mutate applies fn to the tab with id.
func (s *store) mutate(id schema.TabID, fn func(*tab)) (*tab, bool) {
	t := s.get(id)
	if t == nil {
		return nil, false
	}
	fn(t)
	s.version++
	return t, true
}

func (s *store) selectTab(id schema.TabID) bool {
	if s.index(id) < 0 {
		return false
	}
	s.selected = id
	s.version++
	return true
}

func (s *store) snapshot() []schema.Tab {
	out := make([]schema.Tab, 0, len(s.tabs))
	for _, t := range s.tabs {
		out = append(out, t.Snapshot())
	}
	return out
}
