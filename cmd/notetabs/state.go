package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/notetabs/core"
	"pkt.systems/notetabs/internal/appconfig"
	"pkt.systems/notetabs/internal/logx"
	"pkt.systems/notetabs/internal/persist"
	"pkt.systems/notetabs/schema"
	"pkt.systems/pslog"
)

func openSlot(cfg appconfig.Config, logger pslog.Logger) (persist.Slot, error) {
	slot, err := persist.Open(persist.Options{
		Backend: persist.Backend(cfg.State.Backend),
		Dir:     cfg.StateDir,
		Logger:  logx.WithSlot(logger, cfg.State.Backend, cfg.State.Key),
	})
	if errors.Is(err, persist.ErrLocked) {
		return nil, fmt.Errorf("%s is held by another notetabs process (is serve running?): %w", cfg.StateDir, err)
	}
	return slot, err
}

// withService opens the configured state, runs fn, and closes the service,
// which flushes any pending change before the command exits.
func withService(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, svc core.Service, cfg appconfig.Config) error) error {
	ctx := cmd.Context()
	logger := pslog.Ctx(ctx)
	cfg, err := appconfig.Load(opts.configPath)
	if err != nil {
		return err
	}
	slot, err := openSlot(cfg, logger)
	if err != nil {
		return err
	}
	svc, err := core.NewService(cfg.ServiceConfig(), core.ServiceDeps{Slot: slot, Logger: logger})
	if err != nil {
		_ = slot.Close()
		return err
	}
	runErr := fn(ctx, svc, cfg)
	closeErr := svc.Close(ctx)
	return errors.Join(runErr, closeErr)
}

// resolveTab maps a tab reference to an id. References are either a
// 1-based position or a tab id.
func resolveTab(ctx context.Context, svc core.Service, ref string) (schema.Tab, int, error) {
	resp, err := svc.ListTabs(ctx, schema.ListTabsRequest{})
	if err != nil {
		return schema.Tab{}, 0, err
	}
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(resp.Tabs) {
			return resp.Tabs[n-1], n - 1, nil
		}
		return schema.Tab{}, 0, fmt.Errorf("%w: no tab at position %d", schema.ErrTabNotFound, n)
	}
	for i, tab := range resp.Tabs {
		if string(tab.ID) == ref {
			return tab, i, nil
		}
	}
	return schema.Tab{}, 0, fmt.Errorf("%w: %s", schema.ErrTabNotFound, ref)
}
