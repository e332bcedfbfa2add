// Package manager orchestrates uploads. It owns the registry of in-flight
// transfer sessions, drives the per-record state machine, computes derived
// metrics, and applies the retry and connectivity policy. All writes to a
// given record funnel through the manager, which serializes them per id.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"ferry/internal/config"
	"ferry/internal/logging"
	"ferry/internal/notifications"
	"ferry/internal/objectstore"
	"ferry/internal/records"
	"ferry/internal/transfer"
)

const maxRetryDelay = 5 * time.Minute

// Manager coordinates upload records and their transfer sessions.
type Manager struct {
	cfg      *config.Config
	store    *records.Store
	client   *objectstore.Client
	notifier notifications.Publisher
	logger   *slog.Logger
	policy   transfer.Policy

	chunkSize   int64
	maxAttempts int
	backoff     time.Duration
	window      time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	runCtx  context.Context
	wg      sync.WaitGroup
	// active holds the runner for every upload currently transferring.
	active map[string]*runner
	// gens guards against late callbacks: a canceled or replaced session's
	// generation no longer matches and its writes are discarded.
	gens    map[string]uint64
	samples map[string][]progressSample
}

type pauseCause int32

const (
	pauseByUser pauseCause = iota
	pauseByNetwork
)

// runner binds one in-flight transfer session to its upload record.
type runner struct {
	id      string
	gen     uint64
	record  *records.Record
	session *transfer.Session
	cancel  context.CancelFunc
	cause   atomic.Int32
}

type progressSample struct {
	at    time.Time
	bytes int64
}

// NewManager constructs an upload manager. The notifier may be nil, which
// disables notifications.
func NewManager(cfg *config.Config, store *records.Store, client *objectstore.Client, logger *slog.Logger, notifier notifications.Publisher) *Manager {
	backoff := time.Duration(cfg.Transfer.RetryBackoffSeconds) * time.Second
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	window := time.Duration(cfg.Workflow.MetricsWindowSeconds) * time.Second
	if window <= 0 {
		window = 10 * time.Second
	}
	maxAttempts := cfg.Transfer.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 4
	}
	return &Manager{
		cfg:         cfg,
		store:       store,
		client:      client,
		notifier:    notifier,
		logger:      logging.NewComponentLogger(logger, "manager"),
		policy:      transfer.PolicyFromConfig(cfg),
		chunkSize:   int64(cfg.Transfer.ChunkSizeMiB) << 20,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		window:      window,
		active:      make(map[string]*runner),
		gens:        make(map[string]uint64),
		samples:     make(map[string][]progressSample),
	}
}

// Start prepares the manager for control operations. Records interrupted by a
// previous shutdown are reset to paused; their session URIs stay intact so a
// resume continues from the committed offset.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return errors.New("manager already running")
	}

	reset, err := m.store.ResetInterrupted(ctx)
	if err != nil {
		return fmt.Errorf("reset interrupted uploads: %w", err)
	}
	if reset > 0 {
		m.logger.Info("interrupted uploads reset to paused",
			logging.Int64("count", reset),
			logging.String(logging.FieldEventType, "boot_recovery"),
		)
	}

	m.runCtx, m.cancel = context.WithCancel(ctx)
	m.running = true
	return nil
}

// Stop halts all transfers and waits for their runners to exit. Records stay
// in their persisted state; running uploads are reset to paused at next boot.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the manager accepts control operations.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
