package manager

import (
	"context"
	"errors"
	"time"

	"ferry/internal/logging"
	"ferry/internal/objectstore"
	"ferry/internal/records"
	"ferry/internal/transfer"
)

// run drives one upload to a terminal or suspended state. Transient failures
// retry with exponential backoff up to the attempt cap; each retry resumes
// from the store's committed offset, so acknowledged bytes are never resent.
// Network loss converts to an auto-pause without consuming an attempt.
func (m *Manager) run(ctx context.Context, r *runner) {
	defer m.wg.Done()
	defer m.release(r)

	for {
		result, err := r.session.Run(ctx)
		switch {
		case err == nil:
			m.finishSuccess(r, result)
			return
		case errors.Is(err, transfer.ErrPaused):
			m.finishPaused(r, pauseCause(r.cause.Load()) == pauseByNetwork)
			return
		case errors.Is(err, transfer.ErrAborted), errors.Is(err, context.Canceled):
			// Cancel persists its own state; shutdown leaves the record
			// running for boot recovery to reset.
			return
		case errors.Is(err, objectstore.ErrNetworkUnavailable):
			m.finishPaused(r, true)
			return
		case objectstore.IsRetryable(err):
			attempts, stop := m.recordAttempt(r, err)
			if stop {
				return
			}
			m.logger.Warn("upload attempt failed; retrying",
				logging.Error(err),
				logging.String(logging.FieldUploadID, r.id),
				logging.Int("attempts", attempts),
			)
			if !m.sleepBackoff(ctx, attempts) {
				return
			}
		default:
			m.finishFailed(r, err)
			return
		}
	}
}

func (m *Manager) release(r *runner) {
	m.mu.Lock()
	if m.active[r.id] == r {
		delete(m.active, r.id)
	}
	m.mu.Unlock()
}

// applyProgress folds a session progress report into the record. Reports from
// a superseded generation are discarded.
func (m *Manager) applyProgress(id string, gen uint64, bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gens[id] != gen {
		return
	}
	r, ok := m.active[id]
	if !ok {
		return
	}

	now := time.Now()
	r.record.SetProgress(bytes, now)
	r.record.SessionURI = r.session.SessionURI()
	m.addSampleLocked(id, now, r.record.BytesTransferred)

	if err := m.store.Put(context.Background(), r.record); err != nil {
		m.logger.Warn("failed to persist upload progress",
			logging.Error(err),
			logging.String(logging.FieldUploadID, id),
		)
	}
}

func (m *Manager) finishSuccess(r *runner, result objectstore.Result) {
	m.mu.Lock()
	if m.gens[r.id] != r.gen {
		m.mu.Unlock()
		return
	}
	r.record.SetSucceeded(result.URL, result.Path)
	delete(m.samples, r.id)
	err := m.store.Put(context.Background(), r.record)
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("failed to persist completed upload",
			logging.Error(err),
			logging.String(logging.FieldUploadID, r.id),
		)
	}
	m.logger.Info("upload completed",
		logging.String(logging.FieldUploadID, r.id),
		logging.String("file_name", r.record.FileName),
		logging.String("result_url", r.record.ResultURL),
	)
	m.notifySuccess(r.record)
}

func (m *Manager) finishPaused(r *runner, byNetwork bool) {
	m.mu.Lock()
	if m.gens[r.id] != r.gen {
		m.mu.Unlock()
		return
	}
	r.record.SetPaused(byNetwork)
	r.record.SessionURI = r.session.SessionURI()
	err := m.store.Put(context.Background(), r.record)
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("failed to persist paused upload",
			logging.Error(err),
			logging.String(logging.FieldUploadID, r.id),
		)
	}
	m.logger.Info("upload paused",
		logging.String(logging.FieldUploadID, r.id),
		logging.Bool("by_network", byNetwork),
		logging.Int64("offset", r.record.BytesTransferred),
	)
}

func (m *Manager) finishFailed(r *runner, cause error) {
	m.mu.Lock()
	if m.gens[r.id] != r.gen {
		m.mu.Unlock()
		return
	}
	r.record.SetFailed(string(objectstore.KindOf(cause)), objectstore.HumanMessage(cause))
	r.record.SessionURI = r.session.SessionURI()
	delete(m.samples, r.id)
	err := m.store.Put(context.Background(), r.record)
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("failed to persist failed upload",
			logging.Error(err),
			logging.String(logging.FieldUploadID, r.id),
		)
	}
	m.logger.Error("upload failed",
		logging.Error(cause),
		logging.String(logging.FieldUploadID, r.id),
		logging.String("error_kind", r.record.ErrorKind),
	)
	m.notifyFailed(r.record)
}

// recordAttempt charges one attempt against the retry budget. When the budget
// is exhausted the record transitions to error and the runner stops.
func (m *Manager) recordAttempt(r *runner, cause error) (int, bool) {
	m.mu.Lock()
	if m.gens[r.id] != r.gen {
		m.mu.Unlock()
		return 0, true
	}

	r.record.Attempts++
	r.record.SessionURI = r.session.SessionURI()
	attempts := r.record.Attempts

	if attempts >= m.maxAttempts {
		r.record.SetFailed(string(objectstore.KindOf(cause)), objectstore.HumanMessage(cause))
		delete(m.samples, r.id)
		err := m.store.Put(context.Background(), r.record)
		m.mu.Unlock()

		if err != nil {
			m.logger.Error("failed to persist failed upload",
				logging.Error(err),
				logging.String(logging.FieldUploadID, r.id),
			)
		}
		m.logger.Error("upload failed after repeated attempts",
			logging.Error(cause),
			logging.String(logging.FieldUploadID, r.id),
			logging.Int("attempts", attempts),
		)
		m.notifyFailed(r.record)
		return attempts, true
	}

	err := m.store.Put(context.Background(), r.record)
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("failed to persist attempt count",
			logging.Error(err),
			logging.String(logging.FieldUploadID, r.id),
		)
	}
	return attempts, false
}

func (m *Manager) sleepBackoff(ctx context.Context, attempts int) bool {
	delay := m.backoff << (attempts - 1)
	if delay > maxRetryDelay || delay <= 0 {
		delay = maxRetryDelay
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

// HandleOffline pauses every running upload, tagged paused-by-network so the
// reconnect sweep can tell them apart from user pauses.
func (m *Manager) HandleOffline() {
	m.mu.Lock()
	count := len(m.active)
	for _, r := range m.active {
		r.cause.Store(int32(pauseByNetwork))
		r.session.Pause()
	}
	m.mu.Unlock()

	if count > 0 {
		m.logger.Warn("network lost; pausing active uploads",
			logging.Int("count", count),
			logging.String(logging.FieldEventType, "network_offline"),
			logging.String(logging.FieldImpact, "uploads resume automatically on reconnect"),
		)
	}
}

// HandleOnline resumes only the uploads that were paused by network loss.
// User-paused and terminal records are left untouched.
func (m *Manager) HandleOnline(ctx context.Context) {
	paused, err := m.store.List(ctx, records.StatePaused)
	if err != nil {
		m.logger.Error("failed to list paused uploads for auto-resume",
			logging.Error(err),
		)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range paused {
		if !record.PausedByNetwork {
			continue
		}
		if err := m.startLocked(ctx, record.ID); err != nil {
			m.logger.Warn("auto-resume failed",
				logging.Error(err),
				logging.String(logging.FieldUploadID, record.ID),
			)
		}
	}
}
