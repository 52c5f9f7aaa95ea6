package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrTabNotFound indicates a requested tab could not be found.
	ErrTabNotFound = errors.New("tab not found")
	// ErrLastTab indicates a removal would leave the store without tabs.
	ErrLastTab = errors.New("cannot remove the last tab")
	// ErrTabLocked indicates the tab is locked against removal.
	ErrTabLocked = errors.New("tab is locked")
	// ErrInvalidColor indicates a hue outside [0, 1).
	ErrInvalidColor = errors.New("color must be a hue in [0, 1)")
	// ErrSlotEmpty indicates the durable slot holds no data yet.
	ErrSlotEmpty = errors.New("state slot is empty")
	// ErrServiceClosed indicates the service no longer accepts work.
	ErrServiceClosed = errors.New("service closed")
)
