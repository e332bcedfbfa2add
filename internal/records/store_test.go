package records_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"ferry/internal/records"
)

func openStore(t *testing.T) *records.Store {
	t.Helper()
	store, err := records.OpenPath(filepath.Join(t.TempDir(), "uploads.db"))
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newRecord(state records.State) *records.Record {
	return &records.Record{
		ID:          uuid.NewString(),
		OwnerID:     "owner-1",
		Destination: "articles",
		FileName:    "diagram.png",
		SourcePath:  "/tmp/diagram.png",
		MimeType:    "image/png",
		TotalBytes:  10 << 20,
		State:       state,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	record := newRecord(records.StateQueued)
	record.Context = `{"articleId":"a-17"}`
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	fetched, err := store.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected record")
	}
	if fetched.FileName != "diagram.png" || fetched.State != records.StateQueued {
		t.Fatalf("unexpected record: %#v", fetched)
	}
	if fetched.Context != `{"articleId":"a-17"}` {
		t.Fatalf("context not round-tripped: %q", fetched.Context)
	}
}

func TestPutOverwrites(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	record := newRecord(records.StateQueued)
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	record.SetRunning(time.Now())
	record.SetProgress(4<<20, time.Now())
	record.SessionURI = "https://store.example.com/v1/sessions/s-1"
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	fetched, err := store.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.State != records.StateRunning {
		t.Fatalf("expected running, got %s", fetched.State)
	}
	if fetched.BytesTransferred != 4<<20 {
		t.Fatalf("expected 4MiB transferred, got %d", fetched.BytesTransferred)
	}
	if fetched.SessionURI == "" {
		t.Fatal("expected session URI to persist")
	}
	if fetched.StartedAt == nil {
		t.Fatal("expected started_at to persist")
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := openStore(t)
	fetched, err := store.Get(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched != nil {
		t.Fatalf("expected nil for missing record, got %#v", fetched)
	}
}

func TestListFiltersByState(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, state := range []records.State{records.StateQueued, records.StateRunning, records.StateSuccess} {
		if err := store.Put(ctx, newRecord(state)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	active, err := store.List(ctx, records.ActiveStates()...)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active records, got %d", len(active))
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	record := newRecord(records.StateQueued)
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Remove(ctx, record.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := store.Remove(ctx, record.ID); err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}
}

func TestRemoveByStateSparesSuccess(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	success := newRecord(records.StateSuccess)
	failed := newRecord(records.StateError)
	canceled := newRecord(records.StateCanceled)
	for _, r := range []*records.Record{success, failed, canceled} {
		if err := store.Put(ctx, r); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	removed, err := store.RemoveByState(ctx, records.StateError, records.StateCanceled)
	if err != nil {
		t.Fatalf("RemoveByState failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	kept, err := store.Get(ctx, success.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if kept == nil || kept.State != records.StateSuccess {
		t.Fatal("success record must survive error/canceled cleanup")
	}
}

func TestResetInterrupted(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	running := newRecord(records.StateRunning)
	running.PausedByNetwork = true
	queued := newRecord(records.StateQueued)
	for _, r := range []*records.Record{running, queued} {
		if err := store.Put(ctx, r); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	count, err := store.ResetInterrupted(ctx)
	if err != nil {
		t.Fatalf("ResetInterrupted failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 reset, got %d", count)
	}

	fetched, err := store.Get(ctx, running.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.State != records.StatePaused {
		t.Fatalf("expected paused, got %s", fetched.State)
	}
	if fetched.PausedByNetwork {
		t.Fatal("expected network tag cleared on interrupt reset")
	}

	unchanged, err := store.Get(ctx, queued.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if unchanged.State != records.StateQueued {
		t.Fatalf("expected queued untouched, got %s", unchanged.State)
	}
}

func TestStats(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := store.Put(ctx, newRecord(records.StateQueued)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	if err := store.Put(ctx, newRecord(records.StateSuccess)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[records.StateQueued] != 2 || stats[records.StateSuccess] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestProgressClampsAndNeverRegresses(t *testing.T) {
	record := newRecord(records.StateRunning)
	now := time.Now()

	record.SetProgress(4<<20, now)
	record.SetProgress(2<<20, now)
	if record.BytesTransferred != 4<<20 {
		t.Fatalf("progress regressed to %d", record.BytesTransferred)
	}

	record.SetProgress(1<<40, now)
	if record.BytesTransferred != record.TotalBytes {
		t.Fatalf("progress exceeded total: %d", record.BytesTransferred)
	}
}
