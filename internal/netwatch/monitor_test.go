package netwatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ferry/internal/logging"
	"ferry/internal/testsupport"
)

type transitionLog struct {
	mu     sync.Mutex
	states []bool
}

func (l *transitionLog) record(online bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, online)
}

func (l *transitionLog) snapshot() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]bool(nil), l.states...)
}

func TestMonitorDebouncesFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Network.FailureThreshold = 3

	log := &transitionLog{}
	m := NewMonitor(cfg, logging.NewNop(), log.record)

	ctx := context.Background()
	probeErr := errors.New("probe failed")

	m.probe = func(context.Context) error { return probeErr }
	m.check(ctx)
	m.check(ctx)
	if !m.Online() {
		t.Fatal("monitor went offline before reaching the failure threshold")
	}

	m.check(ctx)
	if m.Online() {
		t.Fatal("monitor still online after threshold failures")
	}

	// Further failures must not re-fire the handler.
	m.check(ctx)

	m.probe = func(context.Context) error { return nil }
	m.check(ctx)
	if !m.Online() {
		t.Fatal("monitor offline after successful probe")
	}

	if got := log.snapshot(); len(got) != 2 || got[0] != false || got[1] != true {
		t.Fatalf("transitions = %v, want [false true]", got)
	}
}

func TestMonitorSuccessResetsFailureCount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Network.FailureThreshold = 2

	log := &transitionLog{}
	m := NewMonitor(cfg, logging.NewNop(), log.record)

	ctx := context.Background()
	probeErr := errors.New("probe failed")

	m.probe = func(context.Context) error { return probeErr }
	m.check(ctx)
	m.probe = func(context.Context) error { return nil }
	m.check(ctx)
	m.probe = func(context.Context) error { return probeErr }
	m.check(ctx)

	if !m.Online() {
		t.Fatal("interleaved failures should not cross the threshold")
	}
	if got := log.snapshot(); len(got) != 0 {
		t.Fatalf("unexpected transitions %v", got)
	}
}

func TestMonitorStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Network.ProbeIntervalSeconds = 1

	m := NewMonitor(cfg, logging.NewNop(), nil)
	m.probe = func(context.Context) error { return nil }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Start(ctx)
	if !m.Running() {
		t.Fatal("monitor not running after Start")
	}
	m.Start(ctx) // idempotent

	m.Stop()
	if m.Running() {
		t.Fatal("monitor running after Stop")
	}
	m.Stop() // idempotent

	// Give the loop goroutine a moment to observe quit.
	time.Sleep(10 * time.Millisecond)
}
