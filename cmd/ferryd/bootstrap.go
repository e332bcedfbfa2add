package main

import (
	"context"
	"log/slog"

	"ferry/internal/config"
	"ferry/internal/manager"
	"ferry/internal/netwatch"
	"ferry/internal/notifications"
	"ferry/internal/objectstore"
	"ferry/internal/records"
)

// buildManager assembles the upload manager and the connectivity monitor that
// drives its auto-pause and auto-resume transitions.
func buildManager(cfg *config.Config, store *records.Store, logger *slog.Logger, notifier *notifications.Service) (*manager.Manager, *netwatch.Monitor) {
	client := objectstore.NewClient(cfg, logger)
	mgr := manager.NewManager(cfg, store, client, logger, notifier)

	monitor := netwatch.NewMonitor(cfg, logger, func(online bool) {
		ctx := context.Background()
		if online {
			mgr.HandleOnline(ctx)
			_ = notifier.Publish(ctx, notifications.EventNetworkOnline, notifications.Payload{})
		} else {
			mgr.HandleOffline()
			_ = notifier.Publish(ctx, notifications.EventNetworkOffline, notifications.Payload{})
		}
	})
	return mgr, monitor
}
