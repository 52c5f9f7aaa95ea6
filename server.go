package notetabs

import (
	"context"
	"errors"
	"sync"

	"pkt.systems/notetabs/core"
	"pkt.systems/notetabs/httpapi"
	"pkt.systems/notetabs/internal/eventbus"
	"pkt.systems/notetabs/internal/settings"
	"pkt.systems/notetabs/schema"
	"pkt.systems/pslog"
)

// Server composes the tab service with its presentation surfaces.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
	// Service returns the tab service for in-process callers.
	Service() core.Service
	// Subscribe streams tab and settings changes to in-process callers.
	Subscribe() (<-chan eventbus.Event, func())
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Service    schema.ServiceConfig
	HTTP       httpapi.Config
	HubHistory int
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	ServiceDeps core.ServiceDeps
	// Settings is optional; without it the settings surface is disabled.
	Settings *settings.Manager
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP    bool
	watchSettings bool
}

// WithHTTP enables the loopback HTTP API.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// WithSettingsWatch reloads settings when the file changes on disk.
func WithSettingsWatch() ServerOption {
	return func(o *serverOptions) { o.watchSettings = true }
}

// New constructs a composable notetabs server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.watchSettings && deps.Settings == nil {
		return nil, errors.New("settings watch requires a settings manager")
	}
	normalized, err := schema.NormalizeServiceConfig(cfg.Service)
	if err != nil {
		return nil, err
	}
	cfg.Service = normalized

	serviceDeps := deps.ServiceDeps
	bus := eventbus.New(serviceDeps.Logger)
	var hub *httpapi.Hub
	if options.enableHTTP {
		hub = httpapi.NewHub(cfg.HubHistory)
	}

	sinks := make([]core.EventSink, 0, 3)
	if serviceDeps.EventSink != nil {
		sinks = append(sinks, serviceDeps.EventSink)
	}
	sinks = append(sinks, bus)
	if hub != nil {
		sinks = append(sinks, hub)
	}
	if len(sinks) == 1 {
		serviceDeps.EventSink = sinks[0]
	} else {
		serviceDeps.EventSink = eventFanout{sinks: sinks}
	}

	service, err := core.NewService(cfg.Service, serviceDeps)
	if err != nil {
		return nil, err
	}

	var httpSrv *httpapi.Server
	if options.enableHTTP {
		var prefs httpapi.SettingsStore
		if deps.Settings != nil {
			prefs = deps.Settings
		}
		httpSrv = httpapi.NewServer(cfg.HTTP, service, prefs, hub)
	}

	return &compositeServer{
		cfg:      cfg,
		options:  options,
		service:  service,
		settings: deps.Settings,
		bus:      bus,
		hub:      hub,
		httpSrv:  httpSrv,
	}, nil
}

type compositeServer struct {
	cfg      ServerConfig
	options  serverOptions
	service  core.Service
	settings *settings.Manager
	bus      *eventbus.Bus
	hub      *httpapi.Hub
	httpSrv  *httpapi.Server
	logger   pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
	stopped bool
}

func (s *compositeServer) Service() core.Service {
	return s.service
}

func (s *compositeServer) Subscribe() (<-chan eventbus.Event, func()) {
	return s.bus.Subscribe()
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 2)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http", s.options.enableHTTP,
		"settings_watch", s.options.watchSettings,
		"http_addr", s.cfg.HTTP.Addr,
		"state_key", s.cfg.Service.StateKey,
	)
	if s.settings != nil {
		if s.options.watchSettings {
			if err := s.settings.Watch(s.ctx); err != nil {
				log.Warn("settings watch unavailable", "err", err)
			}
		}
		changes, unsubscribe := s.settings.Subscribe(16)
		go s.forwardSettings(changes, unsubscribe)
	}
	if s.options.enableHTTP && s.httpSrv != nil {
		go func() {
			if err := httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler()); err != nil {
				log.Error("http server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	return nil
}

func (s *compositeServer) forwardSettings(changes <-chan settings.Settings, unsubscribe func()) {
	defer unsubscribe()
	for {
		select {
		case <-s.ctx.Done():
			return
		case next, ok := <-changes:
			if !ok {
				return
			}
			s.bus.OnSettings(next)
			if s.hub != nil {
				s.hub.OnSettings(next)
			}
		}
	}
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

// Stop cancels the surfaces and closes the service, which performs the
// final synchronous flush.
func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	log := s.logger
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if cancel != nil {
		cancel()
	}
	closeCtx := ctx
	if closeCtx == nil {
		closeCtx = context.Background()
	}
	if err := s.service.Close(closeCtx); err != nil {
		log.Warn("server final flush failed", "err", err)
		return err
	}
	log.Info("server stopped")
	return nil
}
