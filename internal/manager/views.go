package manager

import (
	"context"
	"fmt"
	"math"
	"time"

	"ferry/internal/api"
	"ferry/internal/records"
)

// GetActiveUploads returns a snapshot of every record that can still make
// progress (queued, running, paused, error) with metrics attached.
func (m *Manager) GetActiveUploads(ctx context.Context) ([]api.Upload, error) {
	return m.snapshot(ctx, records.ActiveStates()...)
}

// GetAllUploads returns a snapshot of every record in every state.
func (m *Manager) GetAllUploads(ctx context.Context) ([]api.Upload, error) {
	return m.snapshot(ctx)
}

// GetUpload returns one record with metrics, or nil when the id is unknown.
func (m *Manager) GetUpload(ctx context.Context, id string) (*api.Upload, error) {
	record, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load upload record: %w", err)
	}
	if record == nil {
		return nil, nil
	}

	m.mu.Lock()
	if r, ok := m.active[id]; ok {
		record = r.record
	}
	view := api.FromRecord(record, m.metricsLocked(record))
	m.mu.Unlock()
	return &view, nil
}

// Stats returns the record count per state.
func (m *Manager) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load upload stats: %w", err)
	}
	out := make(map[string]int, len(stats))
	for state, count := range stats {
		out[string(state)] = count
	}
	return out, nil
}

func (m *Manager) snapshot(ctx context.Context, states ...records.State) ([]api.Upload, error) {
	list, err := m.store.List(ctx, states...)
	if err != nil {
		return nil, fmt.Errorf("list upload records: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]api.Upload, 0, len(list))
	for _, record := range list {
		// Prefer the in-flight copy; it carries progress the store may
		// not have absorbed yet.
		if r, ok := m.active[record.ID]; ok {
			record = r.record
		}
		out = append(out, api.FromRecord(record, m.metricsLocked(record)))
	}
	return out, nil
}

// metricsLocked derives percentage, throughput and ETA for one record from
// its sliding window of progress samples. The caller must hold m.mu.
func (m *Manager) metricsLocked(record *records.Record) api.Metrics {
	metrics := api.Metrics{Percentage: percentage(record)}

	if record.State != records.StateRunning {
		return metrics
	}
	samples := m.samples[record.ID]
	if len(samples) < 2 {
		return metrics
	}

	first, last := samples[0], samples[len(samples)-1]
	elapsed := last.at.Sub(first.at).Seconds()
	advanced := last.bytes - first.bytes
	if elapsed <= 0 || advanced <= 0 {
		return metrics
	}

	metrics.ThroughputBPS = float64(advanced) / elapsed
	remaining := record.TotalBytes - record.BytesTransferred
	if remaining > 0 && metrics.ThroughputBPS > 0 {
		eta := int64(math.Ceil(float64(remaining) / metrics.ThroughputBPS))
		metrics.ETASeconds = &eta
	}
	return metrics
}

// addSampleLocked appends a progress sample and prunes the sliding window.
// The caller must hold m.mu.
func (m *Manager) addSampleLocked(id string, at time.Time, bytes int64) {
	samples := append(m.samples[id], progressSample{at: at, bytes: bytes})
	cutoff := at.Add(-m.window)
	for len(samples) > 2 && samples[0].at.Before(cutoff) {
		samples = samples[1:]
	}
	m.samples[id] = samples
}

// percentage is clamped to [0,100]; zero-byte files are the degenerate
// 100%-immediately case, never a division fault.
func percentage(record *records.Record) float64 {
	if record.TotalBytes <= 0 {
		return 100
	}
	p := float64(record.BytesTransferred) / float64(record.TotalBytes) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
