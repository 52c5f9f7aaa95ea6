package core

import (
	"context"
	"io"

	"pkt.systems/notetabs/schema"
)

// Service exposes the tab store and its persistence to front-ends.
type Service interface {
	AddTab(ctx context.Context, req schema.AddTabRequest) (schema.AddTabResponse, error)
	RemoveTab(ctx context.Context, req schema.RemoveTabRequest) (schema.RemoveTabResponse, error)
	ListTabs(ctx context.Context, req schema.ListTabsRequest) (schema.ListTabsResponse, error)
	UpdateContent(ctx context.Context, req schema.UpdateContentRequest) (schema.UpdateTabResponse, error)
	UpdateColor(ctx context.Context, req schema.UpdateColorRequest) (schema.UpdateTabResponse, error)
	UpdateTitle(ctx context.Context, req schema.UpdateTitleRequest) (schema.UpdateTabResponse, error)
	UpdateLocked(ctx context.Context, req schema.UpdateLockedRequest) (schema.UpdateTabResponse, error)
	SelectTab(ctx context.Context, req schema.SelectTabRequest) (schema.SelectTabResponse, error)
	SelectShortcut(ctx context.Context, req schema.SelectShortcutRequest) (schema.SelectTabResponse, error)
	Flush(ctx context.Context, req schema.FlushRequest) (schema.FlushResponse, error)
	Export(ctx context.Context, w io.Writer) error
	Stats() schema.WriterStats
	Close(ctx context.Context) error
}
