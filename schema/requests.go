package schema

// Tab lifecycle.

// AddTabRequest describes a request to append a new tab.
type AddTabRequest struct {
	Content string
	Title   string
	Color   float64
}

// AddTabResponse reports the created tab; it is selected.
type AddTabResponse struct {
	Tab Tab
}

// RemoveTabRequest describes a request to remove a tab.
type RemoveTabRequest struct {
	TabID TabID
}

// RemoveTabResponse reports whether the tab was removed and the resulting selection.
type RemoveTabResponse struct {
	Removed  bool
	Selected TabID
}

// ListTabsRequest describes a request to list tabs.
type ListTabsRequest struct{}

// ListTabsResponse reports tabs in store order plus the selection.
type ListTabsResponse struct {
	Tabs     []Tab
	Selected TabID
	// Version increases with every applied mutation.
	Version uint64
}

// Tab edits.

// UpdateContentRequest replaces the body of a tab.
type UpdateContentRequest struct {
	TabID   TabID
	Content string
}

// UpdateColorRequest sets the hue of a tab.
type UpdateColorRequest struct {
	TabID TabID
	Color float64
}

// UpdateTitleRequest sets or clears the explicit title of a tab.
// Blank titles clear it.
type UpdateTitleRequest struct {
	TabID TabID
	Title string
}

// UpdateLockedRequest locks or unlocks a tab.
type UpdateLockedRequest struct {
	TabID  TabID
	Locked bool
}

// UpdateTabResponse reports the tab after an edit. Applied is false when the
// tab does not exist; Tab is then zero.
type UpdateTabResponse struct {
	Applied bool
	Tab     Tab
}

// Selection.

// SelectTabRequest moves the selection to a tab.
type SelectTabRequest struct {
	TabID TabID
}

// SelectShortcutRequest selects the Nth tab (1-indexed).
type SelectShortcutRequest struct {
	Number int
}

// SelectTabResponse reports the selection after the request.
type SelectTabResponse struct {
	Applied  bool
	Selected TabID
}

// Persistence.

// FlushRequest asks for an immediate synchronous write of the tab list.
type FlushRequest struct{}

// FlushResponse reports the flushed state version.
type FlushResponse struct {
	Tabs    int
	Version uint64
}
