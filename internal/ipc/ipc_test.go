package ipc_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"ferry/internal/daemon"
	"ferry/internal/ipc"
	"ferry/internal/logging"
	"ferry/internal/manager"
	"ferry/internal/netwatch"
	"ferry/internal/objectstore"
	"ferry/internal/testsupport"
)

func waitForUploadState(t *testing.T, client *ipc.Client, id, state string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := client.UploadDescribe(id)
		if err != nil {
			t.Fatalf("UploadDescribe: %v", err)
		}
		if resp.Upload.State == state {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("upload %s never reached state %q", id, state)
}

func TestIPCServerClient(t *testing.T) {
	fake := testsupport.NewFakeObjectStore(t)
	cfg := testsupport.NewConfig(t, testsupport.WithStoreURL(fake.URL()))
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	osClient := objectstore.NewClient(cfg, logger)
	mgr := manager.NewManager(cfg, store, osClient, logger, nil)
	monitor := netwatch.NewMonitor(cfg, logger, nil)
	d, err := daemon.New(cfg, store, logger, mgr, monitor, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(cfg.Paths.SocketPath)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	startResp, err := client.Start()
	if err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}
	if !startResp.Started {
		t.Fatalf("expected Started=true, message=%s", startResp.Message)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to be running")
	}
	if !status.NetworkOnline {
		t.Fatal("expected network to start online")
	}
	if !strings.HasSuffix(status.DatabasePath, "uploads.db") {
		t.Fatalf("unexpected database path: %s", status.DatabasePath)
	}

	source := testsupport.WriteSampleFile(t, "guide.pdf", 4<<10)
	addResp, err := client.UploadAdd(ipc.UploadAddRequest{
		SourcePath:  source,
		Destination: "docs/guides",
	})
	if err != nil {
		t.Fatalf("UploadAdd failed: %v", err)
	}
	if addResp.Upload.State != "queued" {
		t.Fatalf("expected queued upload, got %s", addResp.Upload.State)
	}

	if _, err := client.UploadAdd(ipc.UploadAddRequest{Destination: "docs"}); err == nil {
		t.Fatal("expected UploadAdd without source to fail")
	}

	activeResp, err := client.UploadList(ipc.UploadListRequest{})
	if err != nil {
		t.Fatalf("UploadList failed: %v", err)
	}
	if len(activeResp.Uploads) != 1 {
		t.Fatalf("expected 1 active upload, got %d", len(activeResp.Uploads))
	}

	if err := client.UploadStart(addResp.Upload.ID); err != nil {
		t.Fatalf("UploadStart failed: %v", err)
	}
	waitForUploadState(t, client, addResp.Upload.ID, "success")

	activeResp, err = client.UploadList(ipc.UploadListRequest{})
	if err != nil {
		t.Fatalf("UploadList failed: %v", err)
	}
	if len(activeResp.Uploads) != 0 {
		t.Fatalf("expected no active uploads, got %d", len(activeResp.Uploads))
	}
	allResp, err := client.UploadList(ipc.UploadListRequest{All: true})
	if err != nil {
		t.Fatalf("UploadList all failed: %v", err)
	}
	if len(allResp.Uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(allResp.Uploads))
	}

	second, err := client.UploadAdd(ipc.UploadAddRequest{
		SourcePath:  testsupport.WriteSampleFile(t, "draft.pdf", 2<<10),
		Destination: "docs/drafts",
	})
	if err != nil {
		t.Fatalf("UploadAdd second failed: %v", err)
	}
	if err := client.UploadCancel(second.Upload.ID); err != nil {
		t.Fatalf("UploadCancel failed: %v", err)
	}

	canceledResp, err := client.UploadList(ipc.UploadListRequest{States: []string{"canceled"}})
	if err != nil {
		t.Fatalf("UploadList canceled failed: %v", err)
	}
	if len(canceledResp.Uploads) != 1 || canceledResp.Uploads[0].ID != second.Upload.ID {
		t.Fatalf("unexpected canceled listing: %#v", canceledResp.Uploads)
	}

	cleanupResp, err := client.UploadCleanup(true)
	if err != nil {
		t.Fatalf("UploadCleanup failed-only failed: %v", err)
	}
	if cleanupResp.Removed != 1 {
		t.Fatalf("expected 1 canceled record removed, got %d", cleanupResp.Removed)
	}

	// The success record survives failed-only cleanup.
	if _, err := client.UploadDescribe(addResp.Upload.ID); err != nil {
		t.Fatalf("UploadDescribe after cleanup failed: %v", err)
	}

	cleanupResp, err = client.UploadCleanup(false)
	if err != nil {
		t.Fatalf("UploadCleanup failed: %v", err)
	}
	if cleanupResp.Removed != 1 {
		t.Fatalf("expected 1 success record removed, got %d", cleanupResp.Removed)
	}
	if _, err := client.UploadDescribe(addResp.Upload.ID); err == nil {
		t.Fatal("expected UploadDescribe to fail after cleanup")
	}

	notifyResp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if notifyResp.Sent || notifyResp.Message == "" {
		t.Fatalf("expected unsent test notification with message, got %#v", notifyResp)
	}

	listResp, err := client.NotificationList(10)
	if err != nil {
		t.Fatalf("NotificationList failed: %v", err)
	}
	if len(listResp.Notifications) != 0 {
		t.Fatalf("expected no notifications, got %d", len(listResp.Notifications))
	}

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected stop response to be true")
	}

	status2, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status2.Running {
		t.Fatal("expected daemon to be stopped")
	}
}
