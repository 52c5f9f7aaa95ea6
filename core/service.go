package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"pkt.systems/notetabs/internal/logx"
	"pkt.systems/notetabs/internal/persist"
	"pkt.systems/notetabs/schema"
	"pkt.systems/pslog"
)

type service struct {
	cfg    schema.ServiceConfig
	slot   persist.Slot
	sink   EventSink
	logger pslog.Logger
	newID  func() schema.TabID

	mu     sync.Mutex
	store  *store
	writer *debouncedWriter
	closed bool
}

// NewService loads the persisted tab list and returns a ready service.
// Missing or unreadable state yields a single empty tab.
func NewService(cfg schema.ServiceConfig, deps ServiceDeps) (Service, error) {
	cfg, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	slot := deps.Slot
	if slot == nil {
		slot = persist.NewMemorySlot()
	}
	clock := deps.Clock
	if clock == nil {
		clock = realClock{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	ids := deps.NewID
	if ids == nil {
		ids = newID
	}
	svc := &service{
		cfg:    cfg,
		slot:   slot,
		sink:   deps.EventSink,
		logger: logger,
		newID:  ids,
	}
	svc.store = newStore(svc.load(), ids)
	svc.writer = newDebouncedWriter(writerConfig{
		Owner:   &svc.mu,
		Capture: svc.captureLocked,
		Slot:    slot,
		Key:     cfg.StateKey,
		Delay:   cfg.SaveDelay,
		Clock:   clock,
		Logger:  logger.With("component", "writer"),
	})
	logger.Info("service ready", "tabs", len(svc.store.tabs), "state_key", cfg.StateKey, "save_delay", cfg.SaveDelay.String())
	svc.emit(schema.TabEvent{Type: schema.TabEventLoaded, Selected: svc.store.selected})
	return svc, nil
}

func (s *service) load() []schema.Tab {
	tabs, err := persist.ReadTabs(s.slot, s.cfg.StateKey)
	switch {
	case err == nil:
		s.logger.Debug("service state loaded", "tabs", len(tabs))
		return tabs
	case errors.Is(err, schema.ErrSlotEmpty):
		s.logger.Info("service state empty; starting fresh")
	default:
		s.logger.Warn("service state unreadable; starting fresh", "err", err)
	}
	return nil
}

func (s *service) captureLocked() ([]schema.Tab, uint64) {
	return s.store.snapshot(), s.store.version
}

// AddTab appends a tab and selects it.
func (s *service) AddTab(ctx context.Context, req schema.AddTabRequest) (schema.AddTabResponse, error) {
	if ctx == nil {
		return schema.AddTabResponse{}, errors.New("missing context")
	}
	if err := schema.ValidateColor(req.Color); err != nil {
		return schema.AddTabResponse{}, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return schema.AddTabResponse{}, schema.ErrServiceClosed
	}
	t := &tab{
		ID:      s.newID(),
		Content: req.Content,
		Color:   req.Color,
		Title:   schema.NormalizeTitle(req.Title),
	}
	s.store.appendTab(t)
	s.writer.scheduleLocked()
	snap := t.Snapshot()
	version := s.store.version
	s.mu.Unlock()

	logx.WithTab(ctx, snap.ID).Info("service tab created")
	s.emit(schema.TabEvent{Type: schema.TabEventCreated, Tab: snap, Selected: snap.ID, Version: version})
	return schema.AddTabResponse{Tab: snap}, nil
}

// RemoveTab removes a tab. Removing the last tab, a locked tab, or an
// unknown tab is a no-op reported through Removed.
func (s *service) RemoveTab(ctx context.Context, req schema.RemoveTabRequest) (schema.RemoveTabResponse, error) {
	if ctx == nil {
		return schema.RemoveTabResponse{}, errors.New("missing context")
	}
	log := logx.WithTab(ctx, req.TabID)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return schema.RemoveTabResponse{}, schema.ErrServiceClosed
	}
	removed, err := s.store.remove(req.TabID)
	selected := s.store.selected
	if err != nil {
		s.mu.Unlock()
		log.Debug("service tab remove rejected", "reason", err)
		return schema.RemoveTabResponse{Removed: false, Selected: selected}, nil
	}
	s.writer.scheduleLocked()
	version := s.store.version
	s.mu.Unlock()

	log.Info("service tab removed", "selected", selected)
	s.emit(schema.TabEvent{Type: schema.TabEventRemoved, Tab: removed.Snapshot(), Selected: selected, Version: version})
	return schema.RemoveTabResponse{Removed: true, Selected: selected}, nil
}

// ListTabs returns a snapshot of the tabs in store order.
func (s *service) ListTabs(ctx context.Context, _ schema.ListTabsRequest) (schema.ListTabsResponse, error) {
	if ctx == nil {
		return schema.ListTabsResponse{}, errors.New("missing context")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return schema.ListTabsResponse{
		Tabs:     s.store.snapshot(),
		Selected: s.store.selected,
		Version:  s.store.version,
	}, nil
}

// UpdateContent replaces the tab body.
func (s *service) UpdateContent(ctx context.Context, req schema.UpdateContentRequest) (schema.UpdateTabResponse, error) {
	return s.update(ctx, req.TabID, "content", func(t *tab) { t.Content = req.Content })
}

// UpdateColor sets the tab hue.
func (s *service) UpdateColor(ctx context.Context, req schema.UpdateColorRequest) (schema.UpdateTabResponse, error) {
	if err := schema.ValidateColor(req.Color); err != nil {
		return schema.UpdateTabResponse{}, err
	}
	return s.update(ctx, req.TabID, "color", func(t *tab) { t.Color = req.Color })
}

// UpdateTitle sets the explicit title. A blank title clears it.
func (s *service) UpdateTitle(ctx context.Context, req schema.UpdateTitleRequest) (schema.UpdateTabResponse, error) {
	title := schema.NormalizeTitle(req.Title)
	return s.update(ctx, req.TabID, "title", func(t *tab) { t.Title = title })
}

// UpdateLocked locks or unlocks the tab.
func (s *service) UpdateLocked(ctx context.Context, req schema.UpdateLockedRequest) (schema.UpdateTabResponse, error) {
	return s.update(ctx, req.TabID, "locked", func(t *tab) { t.Locked = req.Locked })
}

func (s *service) update(ctx context.Context, id schema.TabID, field string, fn func(*tab)) (schema.UpdateTabResponse, error) {
	if ctx == nil {
		return schema.UpdateTabResponse{}, errors.New("missing context")
	}
	log := logx.WithTab(ctx, id)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return schema.UpdateTabResponse{}, schema.ErrServiceClosed
	}
	t, ok := s.store.mutate(id, fn)
	if !ok {
		s.mu.Unlock()
		log.Debug("service tab update ignored", "field", field, "reason", schema.ErrTabNotFound)
		return schema.UpdateTabResponse{}, nil
	}
	s.writer.scheduleLocked()
	snap := t.Snapshot()
	selected := s.store.selected
	version := s.store.version
	s.mu.Unlock()

	log.Trace("service tab updated", "field", field, "version", version)
	s.emit(schema.TabEvent{Type: schema.TabEventUpdated, Tab: snap, Selected: selected, Version: version})
	return schema.UpdateTabResponse{Applied: true, Tab: snap}, nil
}

// SelectTab moves the selection. Unknown ids leave it unchanged.
func (s *service) SelectTab(ctx context.Context, req schema.SelectTabRequest) (schema.SelectTabResponse, error) {
	if ctx == nil {
		return schema.SelectTabResponse{}, errors.New("missing context")
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return schema.SelectTabResponse{}, schema.ErrServiceClosed
	}
	resp, event, ok := s.selectLocked(req.TabID)
	s.mu.Unlock()

	log := logx.WithTab(ctx, req.TabID)
	if !ok {
		log.Debug("service tab select ignored", "reason", schema.ErrTabNotFound)
		return resp, nil
	}
	log.Debug("service tab selected")
	s.emit(event)
	return resp, nil
}

// SelectShortcut selects the Nth tab in order (1..9). Out-of-range numbers
// leave the selection unchanged.
func (s *service) SelectShortcut(ctx context.Context, req schema.SelectShortcutRequest) (schema.SelectTabResponse, error) {
	if ctx == nil {
		return schema.SelectTabResponse{}, errors.New("missing context")
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return schema.SelectTabResponse{}, schema.ErrServiceClosed
	}
	id, found := TabForShortcut(s.store.snapshot(), req.Number)
	if !found {
		selected := s.store.selected
		s.mu.Unlock()
		logx.Ctx(ctx).Debug("service shortcut ignored", "number", req.Number)
		return schema.SelectTabResponse{Selected: selected}, nil
	}
	resp, event, _ := s.selectLocked(id)
	s.mu.Unlock()

	logx.WithTab(ctx, id).Debug("service shortcut selected", "number", req.Number)
	s.emit(event)
	return resp, nil
}

func (s *service) selectLocked(id schema.TabID) (schema.SelectTabResponse, schema.TabEvent, bool) {
	if !s.store.selectTab(id) {
		return schema.SelectTabResponse{Selected: s.store.selected}, schema.TabEvent{}, false
	}
	s.writer.scheduleLocked()
	event := schema.TabEvent{
		Type:     schema.TabEventSelected,
		Tab:      s.store.get(id).Snapshot(),
		Selected: id,
		Version:  s.store.version,
	}
	return schema.SelectTabResponse{Applied: true, Selected: id}, event, true
}

// Flush writes the current state immediately, superseding any pending
// debounced write. Unlike debounced writes, failures are returned.
func (s *service) Flush(ctx context.Context, _ schema.FlushRequest) (schema.FlushResponse, error) {
	if ctx == nil {
		return schema.FlushResponse{}, errors.New("missing context")
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return schema.FlushResponse{}, schema.ErrServiceClosed
	}
	count, version, err := s.writer.flush()
	if err != nil {
		logx.Ctx(ctx).Warn("service flush failed", "err", err)
		return schema.FlushResponse{}, fmt.Errorf("flush: %w", err)
	}
	logx.Ctx(ctx).Debug("service flush complete", "tabs", count, "version", version)
	return schema.FlushResponse{Tabs: count, Version: version}, nil
}

// Export renders the current tabs as plain text to w.
func (s *service) Export(ctx context.Context, w io.Writer) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	if w == nil {
		return schema.ErrInvalidRequest
	}
	s.mu.Lock()
	tabs := s.store.snapshot()
	s.mu.Unlock()
	if err := WriteExport(w, tabs); err != nil {
		logx.Ctx(ctx).Warn("service export failed", "err", err)
		return fmt.Errorf("export: %w", err)
	}
	logx.Ctx(ctx).Info("service export complete", "tabs", len(tabs))
	return nil
}

// Stats reports durable write counters.
func (s *service) Stats() schema.WriterStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer.statsLocked()
}

// Close writes state changed since the last durable write, stops accepting
// work, and closes the slot. An untouched store is not written.
func (s *service) Close(ctx context.Context) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	wrote, flushErr := s.writer.finish()
	if flushErr != nil {
		logx.Ctx(ctx).Warn("service final flush failed", "err", flushErr)
	}
	closeErr := s.slot.Close()
	if closeErr != nil {
		logx.Ctx(ctx).Warn("service slot close failed", "err", closeErr)
	}
	logx.Ctx(ctx).Info("service closed", "final_write", wrote)
	return errors.Join(flushErr, closeErr)
}

func (s *service) emit(event schema.TabEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnTabEvent(event)
}
