package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/notetabs"
	"pkt.systems/notetabs/core"
	"pkt.systems/notetabs/httpapi"
	"pkt.systems/notetabs/internal/appconfig"
	"pkt.systems/notetabs/internal/eventbus"
	"pkt.systems/notetabs/internal/settings"
	"pkt.systems/pslog"
)

const stopTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	var logEvents bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Hold the tab store open and serve the loopback API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(opts.configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			slot, err := openSlot(cfg, logger)
			if err != nil {
				return err
			}
			prefs, err := settings.Open(cfg.SettingsFile, logger)
			if err != nil {
				_ = slot.Close()
				return err
			}

			server, err := notetabs.New(notetabs.ServerConfig{
				Service:    cfg.ServiceConfig(),
				HTTP:       toHTTPConfig(cfg),
				HubHistory: 1000,
			}, notetabs.ServerDeps{
				ServiceDeps: core.ServiceDeps{Slot: slot, Logger: logger},
				Settings:    prefs,
			}, notetabs.WithHTTP(), notetabs.WithSettingsWatch())
			if err != nil {
				_ = slot.Close()
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if logEvents {
				events, unsubscribe := server.Subscribe()
				defer unsubscribe()
				go logBusEvents(ctx, logger, events)
			}
			logger.Info("http server listening", "addr", cfg.HTTP.Addr)
			logger.Info("tab state", "backend", cfg.State.Backend, "dir", cfg.StateDir, "key", cfg.State.Key)
			if err := server.Start(ctx); err != nil {
				_ = server.Stop(context.Background())
				return err
			}
			waitErr := server.Wait()
			stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			if err := server.Stop(stopCtx); err != nil {
				logger.Warn("server stop failed", "err", err)
				return errors.Join(waitErr, err)
			}
			return waitErr
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "override http.addr")
	cmd.Flags().BoolVar(&logEvents, "log-events", false, "log every tab and settings event")
	return cmd
}

func toHTTPConfig(cfg appconfig.Config) httpapi.Config {
	return httpapi.Config{
		Addr:        cfg.HTTP.Addr,
		ExportPath:  cfg.Export.DefaultPath,
		HistorySize: 1000,
	}
}

func logBusEvents(ctx context.Context, logger pslog.Logger, events <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case eventbus.EventTab:
				logger.Info("tab event", "type", string(ev.Tab.Type), "tab", string(ev.Tab.Tab.ID), "selected", string(ev.Tab.Selected), "version", ev.Tab.Version)
			case eventbus.EventSettings:
				logger.Info("settings event", "settings", fmt.Sprintf("%+v", ev.Settings))
			}
		}
	}
}
