// Package netwatch tracks connectivity to the object store with a periodic
// reachability probe and reports transitions between online and offline.
package netwatch

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"ferry/internal/config"
	"ferry/internal/logging"
)

// ChangeFunc is invoked on every connectivity transition. It runs on the
// monitor goroutine, so handlers must not block for long.
type ChangeFunc func(online bool)

// Monitor probes the object store endpoint at a fixed interval. A run of
// consecutive probe failures flips the state to offline; a single success
// flips it back. Debouncing through the failure threshold keeps one dropped
// request from pausing every transfer.
type Monitor struct {
	probeURL  string
	interval  time.Duration
	threshold int
	logger    *slog.Logger
	handler   ChangeFunc
	client    *http.Client

	// probe is replaceable in tests.
	probe func(ctx context.Context) error

	mu       sync.Mutex
	quit     chan struct{}
	running  bool
	online   bool
	failures int
}

// NewMonitor creates a connectivity monitor from configuration. The handler
// may be nil.
func NewMonitor(cfg *config.Config, logger *slog.Logger, handler ChangeFunc) *Monitor {
	m := &Monitor{
		probeURL:  cfg.Network.ProbeURL,
		interval:  time.Duration(cfg.Network.ProbeIntervalSeconds) * time.Second,
		threshold: cfg.Network.FailureThreshold,
		logger:    logging.NewComponentLogger(logger, "netwatch"),
		handler:   handler,
		client:    &http.Client{Timeout: 10 * time.Second},
		online:    true,
	}
	if m.interval <= 0 {
		m.interval = 15 * time.Second
	}
	if m.threshold <= 0 {
		m.threshold = 1
	}
	m.probe = m.probeEndpoint
	return m
}

// Start launches the probe loop. Starting a running monitor is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.loop(ctx, quit)

	m.logger.Info("connectivity monitor started",
		logging.String(logging.FieldEventType, "netwatch_started"),
		logging.String("probe_url", m.probeURL),
	)
}

// Stop shuts down the probe loop.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	close(m.quit)
	m.quit = nil
	m.running = false

	m.logger.Info("connectivity monitor stopped",
		logging.String(logging.FieldEventType, "netwatch_stopped"),
	)
}

// Running reports whether the probe loop is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	if m == nil {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Monitor) loop(ctx context.Context, quit <-chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	err := m.probe(ctx)

	m.mu.Lock()
	var transition ChangeFunc
	var online bool
	if err != nil {
		m.failures++
		if m.online && m.failures >= m.threshold {
			m.online = false
			transition = m.handler
			online = false
		}
	} else {
		m.failures = 0
		if !m.online {
			m.online = true
			transition = m.handler
			online = true
		}
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Debug("connectivity probe failed", logging.Error(err))
	}

	if transition == nil {
		return
	}

	if online {
		m.logger.Info("connectivity restored",
			logging.String(logging.FieldEventType, "network_online"),
		)
	} else {
		m.logger.Warn("connectivity lost",
			logging.Error(err),
			logging.String(logging.FieldEventType, "network_offline"),
			logging.String(logging.FieldImpact, "active uploads will be paused"),
		)
	}
	transition(online)
}

func (m *Monitor) probeEndpoint(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.probeURL, nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
