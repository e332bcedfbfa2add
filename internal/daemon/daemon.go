package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"ferry/internal/api"
	"ferry/internal/config"
	"ferry/internal/logging"
	"ferry/internal/manager"
	"ferry/internal/netwatch"
	"ferry/internal/notifications"
	"ferry/internal/records"
)

// Daemon composes the upload manager, the network monitor and the
// notification service, and enforces single-instance execution through a
// file lock in the data directory.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *records.Store
	manager  *manager.Manager
	monitor  *netwatch.Monitor
	notifier *notifications.Service

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New constructs a daemon from already initialized dependencies. The monitor
// and notifier are optional; everything else is required.
func New(cfg *config.Config, store *records.Store, logger *slog.Logger, mgr *manager.Manager, monitor *netwatch.Monitor, notifier *notifications.Service) (*Daemon, error) {
	if cfg == nil || store == nil || mgr == nil {
		return nil, errors.New("daemon requires config, store, and upload manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "ferryd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		manager:  mgr,
		monitor:  monitor,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the upload manager and the
// network monitor.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another ferry daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.manager.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start upload manager: %w", err)
	}
	d.monitor.Start(d.ctx)

	d.running.Store(true)
	d.logger.Info("ferry daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts background processing and releases the daemon lock. Active
// uploads are left in running state for boot recovery to reset to paused.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.monitor.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.manager.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("ferry daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// AddUpload validates and queues a file, optionally starting transmission
// immediately. The returned snapshot reflects the state after queueing.
func (d *Daemon) AddUpload(ctx context.Context, req manager.AddRequest, start bool) (*api.Upload, error) {
	record, err := d.manager.AddUpload(ctx, req)
	if err != nil {
		return nil, err
	}
	if start {
		if err := d.manager.StartUpload(ctx, record.ID); err != nil {
			return nil, err
		}
	}
	view, err := d.manager.GetUpload(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, fmt.Errorf("upload %s vanished after queueing", record.ID)
	}
	return view, nil
}

// StartUpload begins transmission for a queued record.
func (d *Daemon) StartUpload(ctx context.Context, id string) error {
	return d.manager.StartUpload(ctx, id)
}

// PauseUpload suspends a running upload at the next chunk boundary.
func (d *Daemon) PauseUpload(ctx context.Context, id string) error {
	return d.manager.PauseUpload(ctx, id)
}

// ResumeUpload continues a paused or failed upload from its committed offset.
func (d *Daemon) ResumeUpload(ctx context.Context, id string) error {
	return d.manager.ResumeUpload(ctx, id)
}

// CancelUpload terminates an upload and releases its server-side session.
func (d *Daemon) CancelUpload(ctx context.Context, id string) error {
	return d.manager.CancelUpload(ctx, id)
}

// RemoveUpload discards an upload record entirely.
func (d *Daemon) RemoveUpload(ctx context.Context, id string) error {
	return d.manager.RemoveUpload(ctx, id)
}

// ListUploads returns upload snapshots; active-only unless all is set.
func (d *Daemon) ListUploads(ctx context.Context, all bool) ([]api.Upload, error) {
	if all {
		return d.manager.GetAllUploads(ctx)
	}
	return d.manager.GetActiveUploads(ctx)
}

// GetUpload returns a single upload snapshot, or nil when the id is unknown.
func (d *Daemon) GetUpload(ctx context.Context, id string) (*api.Upload, error) {
	return d.manager.GetUpload(ctx, id)
}

// Cleanup removes finished records. With failedOnly set, success records are
// kept and only error and canceled records are removed.
func (d *Daemon) Cleanup(ctx context.Context, failedOnly bool) (int64, error) {
	if failedOnly {
		return d.manager.CleanupFailed(ctx)
	}
	return d.manager.CleanupTerminal(ctx)
}

// Notifications returns the most recent notifications, newest first.
func (d *Daemon) Notifications(ctx context.Context, limit int) ([]api.Notification, error) {
	if d.notifier == nil {
		return nil, nil
	}
	list, err := d.notifier.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return api.FromNotifications(list), nil
}

// DismissNotification removes one notification from the log.
func (d *Daemon) DismissNotification(ctx context.Context, id int64) error {
	if d.notifier == nil {
		return nil
	}
	return d.notifier.Dismiss(ctx, id)
}

// ClearNotifications empties the notification log.
func (d *Daemon) ClearNotifications(ctx context.Context) error {
	if d.notifier == nil {
		return nil
	}
	return d.notifier.Clear(ctx)
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.notifier == nil {
		return false, "notifications unavailable", nil
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Test(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	status := api.DaemonStatus{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		DatabasePath:  d.cfg.DatabasePath(),
		LockFilePath:  d.lockPath,
		SocketPath:    d.cfg.Paths.SocketPath,
		NetworkOnline: d.monitor.Online(),
	}
	if counts, err := d.manager.Stats(ctx); err == nil {
		status.StateCounts = counts
	} else {
		d.logger.Warn("failed to load upload stats", logging.Error(err))
	}
	return status
}
