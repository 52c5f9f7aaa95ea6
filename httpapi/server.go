package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pkt.systems/notetabs/core"
	"pkt.systems/notetabs/internal/export"
	"pkt.systems/notetabs/internal/logx"
	"pkt.systems/notetabs/internal/settings"
	"pkt.systems/notetabs/schema"
)

// SettingsStore reads and replaces editor settings.
type SettingsStore interface {
	Get() settings.Settings
	Update(next settings.Settings) (settings.Settings, error)
}

// Server serves the loopback JSON API.
type Server struct {
	cfg      Config
	service  core.Service
	settings SettingsStore
	hub      *Hub
}

// NewServer constructs an HTTP server. prefs may be nil, which disables the
// settings endpoints.
func NewServer(cfg Config, service core.Service, prefs SettingsStore, hub *Hub) *Server {
	if hub == nil {
		hub = NewHub(cfg.HistorySize)
	}
	return &Server{
		cfg:      cfg,
		service:  service,
		settings: prefs,
		hub:      hub,
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tabs", s.handleListTabs)
	mux.HandleFunc("POST /api/tabs", s.handleAddTab)
	mux.HandleFunc("DELETE /api/tabs/{id}", s.handleRemoveTab)
	mux.HandleFunc("PATCH /api/tabs/{id}", s.handleUpdateTab)
	mux.HandleFunc("POST /api/tabs/select", s.handleSelect)
	mux.HandleFunc("POST /api/shortcut/{n}", s.handleShortcut)
	mux.HandleFunc("POST /api/flush", s.handleFlush)
	mux.HandleFunc("POST /api/export", s.handleExport)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)
	mux.HandleFunc("GET /api/stream", s.handleStream)
	return withRequestLogging(mux)
}

func (s *Server) handleListTabs(w http.ResponseWriter, r *http.Request) {
	log := logx.Ctx(r.Context())
	resp, err := s.service.ListTabs(r.Context(), schema.ListTabsRequest{})
	if err != nil {
		log.Warn("http tabs list failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, TabsResponse{
		Tabs:       newTabPayloads(resp.Tabs),
		SelectedID: resp.Selected,
		Version:    resp.Version,
	})
	log.Debug("http tabs list ok", "count", len(resp.Tabs))
}

func (s *Server) handleAddTab(w http.ResponseWriter, r *http.Request) {
	log := logx.Ctx(r.Context())
	var payload struct {
		Content string  `json:"content"`
		Title   string  `json:"title"`
		Color   float64 `json:"color"`
	}
	if err := decodeOptionalJSON(r.Body, &payload); err != nil {
		log.Warn("http tabs decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.AddTab(r.Context(), schema.AddTabRequest{
		Content: payload.Content,
		Title:   payload.Title,
		Color:   payload.Color,
	})
	if err != nil {
		log.Warn("http tabs create failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, newTabPayload(resp.Tab, -1))
	log.Info("http tabs create ok", "tab", resp.Tab.ID)
}

func (s *Server) handleRemoveTab(w http.ResponseWriter, r *http.Request) {
	id := schema.TabID(r.PathValue("id"))
	log := logx.WithTab(r.Context(), id)
	r = r.WithContext(logx.ContextWithTabLogger(r.Context(), log, id))
	resp, err := s.service.RemoveTab(r.Context(), schema.RemoveTabRequest{TabID: id})
	if err != nil {
		log.Warn("http tabs remove failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"removed":     resp.Removed,
		"selected_id": resp.Selected,
	})
	log.Info("http tabs remove ok", "removed", resp.Removed)
}

func (s *Server) handleUpdateTab(w http.ResponseWriter, r *http.Request) {
	id := schema.TabID(r.PathValue("id"))
	log := logx.WithTab(r.Context(), id)
	r = r.WithContext(logx.ContextWithTabLogger(r.Context(), log, id))
	var payload struct {
		Content *string  `json:"content"`
		Title   *string  `json:"title"`
		Color   *float64 `json:"color"`
		Locked  *bool    `json:"locked"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http tabs patch decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.Color != nil {
		if err := schema.ValidateColor(*payload.Color); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	ctx := r.Context()
	var (
		resp    schema.UpdateTabResponse
		err     error
		touched bool
	)
	apply := func(fn func() (schema.UpdateTabResponse, error)) {
		if err != nil {
			return
		}
		touched = true
		resp, err = fn()
		if err == nil && !resp.Applied {
			err = schema.ErrTabNotFound
		}
	}
	if payload.Content != nil {
		apply(func() (schema.UpdateTabResponse, error) {
			return s.service.UpdateContent(ctx, schema.UpdateContentRequest{TabID: id, Content: *payload.Content})
		})
	}
	if payload.Title != nil {
		apply(func() (schema.UpdateTabResponse, error) {
			return s.service.UpdateTitle(ctx, schema.UpdateTitleRequest{TabID: id, Title: *payload.Title})
		})
	}
	if payload.Color != nil {
		apply(func() (schema.UpdateTabResponse, error) {
			return s.service.UpdateColor(ctx, schema.UpdateColorRequest{TabID: id, Color: *payload.Color})
		})
	}
	if payload.Locked != nil {
		apply(func() (schema.UpdateTabResponse, error) {
			return s.service.UpdateLocked(ctx, schema.UpdateLockedRequest{TabID: id, Locked: *payload.Locked})
		})
	}
	if !touched {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: no fields to update", schema.ErrInvalidRequest))
		return
	}
	if err != nil {
		log.Debug("http tabs patch failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, newTabPayload(resp.Tab, -1))
	log.Debug("http tabs patch ok")
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	log := logx.Ctx(r.Context())
	var payload struct {
		TabID string `json:"tab_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http select decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.SelectTab(r.Context(), schema.SelectTabRequest{TabID: schema.TabID(payload.TabID)})
	if err != nil {
		log.Warn("http select failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeSelection(w, resp)
	log.Debug("http select ok", "applied", resp.Applied, "selected", resp.Selected)
}

func (s *Server) handleShortcut(w http.ResponseWriter, r *http.Request) {
	log := logx.Ctx(r.Context())
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: shortcut must be a number", schema.ErrInvalidRequest))
		return
	}
	resp, err := s.service.SelectShortcut(r.Context(), schema.SelectShortcutRequest{Number: n})
	if err != nil {
		log.Warn("http shortcut failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeSelection(w, resp)
	log.Debug("http shortcut ok", "number", n, "applied", resp.Applied)
}

func writeSelection(w http.ResponseWriter, resp schema.SelectTabResponse) {
	writeJSON(w, http.StatusOK, map[string]any{
		"applied":     resp.Applied,
		"selected_id": resp.Selected,
	})
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	log := logx.Ctx(r.Context())
	resp, err := s.service.Flush(r.Context(), schema.FlushRequest{})
	if err != nil {
		log.Warn("http flush failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tabs": resp.Tabs, "version": resp.Version})
	log.Info("http flush ok", "tabs", resp.Tabs, "version", resp.Version)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	log := logx.Ctx(r.Context())
	var payload struct {
		Path string `json:"path"`
	}
	if err := decodeOptionalJSON(r.Body, &payload); err != nil {
		log.Warn("http export decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	path := strings.TrimSpace(payload.Path)
	if path == "" {
		path = s.cfg.ExportPath
	}
	written, err := export.ToFile(r.Context(), s.service, path)
	if err != nil {
		log.Warn("http export failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": written})
	log.Info("http export ok", "path", written)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.service.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"writes":       stats.Writes,
		"failures":     stats.Failures,
		"superseded":   stats.Superseded,
		"pending":      stats.Pending,
		"last_version": stats.LastVersion,
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeError(w, http.StatusNotFound, errors.New("settings unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, s.settings.Get())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	log := logx.Ctx(r.Context())
	if s.settings == nil {
		writeError(w, http.StatusNotFound, errors.New("settings unavailable"))
		return
	}
	next := s.settings.Get()
	if err := decodeJSON(r.Body, &next); err != nil {
		log.Warn("http settings decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	saved, err := s.settings.Update(next)
	if err != nil {
		log.Warn("http settings save failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
	log.Info("http settings save ok")
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	log := logx.Ctx(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))

	// Subscribe before the snapshot so no change slips between them.
	ch, unsubscribe, _, history := s.hub.Subscribe()
	defer unsubscribe()

	snapshot := s.buildSnapshot(r.Context())
	_ = writeSSEvent(w, StreamEvent{
		Type:      "snapshot",
		Snapshot:  &snapshot,
		Timestamp: time.Now(),
	})
	flusher.Flush()

	replay, seen := replayAfter(history, lastID)
	for _, event := range replay {
		_ = writeSSEvent(w, event)
	}
	if len(replay) > 0 {
		flusher.Flush()
	}

	notify := r.Context().Done()
	log.Info("http stream opened", "last_id", lastID, "replay", len(replay), "tabs", len(snapshot.Tabs))
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Seq <= seen {
				continue
			}
			seen = event.Seq
			_ = writeSSEvent(w, event)
			flusher.Flush()
		}
	}
}

// replayAfter returns the history events newer than lastID and the highest
// sequence number among them. A zero lastID replays nothing.
func replayAfter(history []StreamEvent, lastID uint64) ([]StreamEvent, uint64) {
	if lastID == 0 {
		return nil, 0
	}
	var (
		out  []StreamEvent
		seen uint64
	)
	for _, event := range history {
		if event.Seq <= lastID {
			continue
		}
		out = append(out, event)
		seen = max(seen, event.Seq)
	}
	return out, seen
}

func (s *Server) buildSnapshot(ctx context.Context) SnapshotPayload {
	out := SnapshotPayload{Tabs: []TabPayload{}}
	if resp, err := s.service.ListTabs(ctx, schema.ListTabsRequest{}); err == nil {
		out.Tabs = newTabPayloads(resp.Tabs)
		out.SelectedID = resp.Selected
		out.Version = resp.Version
	}
	if s.settings != nil {
		out.Settings = s.settings.Get()
	}
	return out
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, schema.ErrInvalidColor), errors.Is(err, schema.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrTabNotFound):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrServiceClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

// decodeOptionalJSON accepts an empty body as "all defaults".
func decodeOptionalJSON(body io.Reader, target any) error {
	if err := decodeJSON(body, target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
