package daemon_test

import (
	"context"
	"os"
	"testing"
	"time"

	"ferry/internal/config"
	"ferry/internal/daemon"
	"ferry/internal/logging"
	"ferry/internal/manager"
	"ferry/internal/netwatch"
	"ferry/internal/objectstore"
	"ferry/internal/records"
	"ferry/internal/testsupport"
)

func newTestDaemon(t *testing.T) (*daemon.Daemon, *config.Config, *testsupport.FakeObjectStore) {
	t.Helper()

	fake := testsupport.NewFakeObjectStore(t)
	cfg := testsupport.NewConfig(t, testsupport.WithStoreURL(fake.URL()))
	store := testsupport.MustOpenStore(t, cfg)

	logger := logging.NewNop()
	client := objectstore.NewClient(cfg, logger)
	mgr := manager.NewManager(cfg, store, client, logger, nil)
	monitor := netwatch.NewMonitor(cfg, logger, nil)

	d, err := daemon.New(cfg, store, logger, mgr, monitor, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(d.Stop)
	return d, cfg, fake
}

func waitForState(t *testing.T, d *daemon.Daemon, id, state string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		view, err := d.GetUpload(context.Background(), id)
		if err != nil {
			t.Fatalf("GetUpload: %v", err)
		}
		if view != nil && view.State == state {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("upload %s never reached state %q", id, state)
}

func TestDaemonStartStop(t *testing.T) {
	d, _, _ := newTestDaemon(t)

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail while running")
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected status to report running")
	}
	if status.PID != os.Getpid() {
		t.Fatalf("PID = %d, want %d", status.PID, os.Getpid())
	}
	if status.LockFilePath == "" || status.DatabasePath == "" {
		t.Fatalf("expected lock and database paths in status, got %+v", status)
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected status to report stopped")
	}

	// The lock is released on stop, so a restart must succeed.
	if err := d.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	d, cfg, _ := newTestDaemon(t)

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	logger := logging.NewNop()
	store, err := records.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	client := objectstore.NewClient(cfg, logger)
	mgr := manager.NewManager(cfg, store, client, logger, nil)
	second, err := daemon.New(cfg, store, logger, mgr, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(second.Stop)

	if err := second.Start(ctx); err == nil {
		t.Fatal("expected second daemon instance to be rejected by the lock")
	}
}

func TestDaemonUploadRoundTrip(t *testing.T) {
	d, _, fake := newTestDaemon(t)

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	source := testsupport.WriteSampleFile(t, "report.pdf", 8<<10)
	view, err := d.AddUpload(ctx, manager.AddRequest{
		SourcePath:  source,
		Destination: "docs/reports",
	}, false)
	if err != nil {
		t.Fatalf("AddUpload: %v", err)
	}
	if view.State != "queued" {
		t.Fatalf("state = %q, want queued", view.State)
	}

	if err := d.StartUpload(ctx, view.ID); err != nil {
		t.Fatalf("StartUpload: %v", err)
	}
	waitForState(t, d, view.ID, "success")

	done, err := d.GetUpload(ctx, view.ID)
	if err != nil {
		t.Fatalf("GetUpload: %v", err)
	}
	if done.ResultPath == "" || done.ResultURL == "" {
		t.Fatalf("expected result location, got %+v", done)
	}
	if _, ok := fake.Object(done.ResultPath); !ok {
		t.Fatal("expected finalized object in store")
	}

	all, err := d.ListUploads(ctx, true)
	if err != nil {
		t.Fatalf("ListUploads: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("len(all) = %d, want 1", len(all))
	}

	removed, err := d.Cleanup(ctx, false)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
}

func TestDaemonTestNotificationWithoutTopic(t *testing.T) {
	d, _, _ := newTestDaemon(t)

	sent, message, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if sent {
		t.Fatal("expected no notification without a notifier")
	}
	if message == "" {
		t.Fatal("expected explanatory message")
	}
}
