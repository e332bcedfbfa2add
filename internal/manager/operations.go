package manager

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ferry/internal/logging"
	"ferry/internal/objectstore"
	"ferry/internal/records"
	"ferry/internal/transfer"
)

// AddRequest describes a file submitted for upload.
type AddRequest struct {
	SourcePath  string
	OwnerID     string
	Destination string
	// MimeType is derived from the file extension when empty.
	MimeType string
	// Context is opaque caller correlation data, round-tripped to
	// notifications and never interpreted.
	Context string
}

// AddUpload validates the file against policy and creates a queued record.
// Validation failures are reported synchronously and create no record.
// Transmission does not start until StartUpload or ResumeUpload is called.
func (m *Manager) AddUpload(ctx context.Context, req AddRequest) (*records.Record, error) {
	source := strings.TrimSpace(req.SourcePath)
	if source == "" {
		return nil, objectstore.Wrap(objectstore.ErrValidation, "add upload", "source path is empty", nil)
	}
	info, err := os.Stat(source)
	if err != nil {
		return nil, objectstore.Wrap(objectstore.ErrValidation, "add upload", "source file is not readable", err)
	}
	if info.IsDir() {
		return nil, objectstore.Wrap(objectstore.ErrValidation, "add upload", "source path is a directory", nil)
	}

	destination := strings.TrimSpace(req.Destination)
	if destination == "" {
		return nil, objectstore.Wrap(objectstore.ErrValidation, "add upload", "destination is empty", nil)
	}

	fileName := filepath.Base(source)
	mimeType := strings.TrimSpace(req.MimeType)
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(fileName))
		if idx := strings.Index(mimeType, ";"); idx >= 0 {
			mimeType = strings.TrimSpace(mimeType[:idx])
		}
	}

	if err := m.policy.Validate(fileName, mimeType, info.Size()); err != nil {
		return nil, err
	}

	owner := strings.TrimSpace(req.OwnerID)
	if owner == "" {
		owner = m.cfg.Identity.DefaultOwner
	}

	now := time.Now().UTC()
	record := &records.Record{
		ID:          uuid.NewString(),
		OwnerID:     owner,
		Destination: destination,
		FileName:    fileName,
		SourcePath:  source,
		MimeType:    mimeType,
		TotalBytes:  info.Size(),
		State:       records.StateQueued,
		Context:     req.Context,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.store.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("persist upload record: %w", err)
	}

	m.logger.Info("upload queued",
		logging.String(logging.FieldUploadID, record.ID),
		logging.String("file_name", record.FileName),
		logging.String("destination", record.Destination),
		logging.Int64("total_bytes", record.TotalBytes),
	)
	return record, nil
}

// StartUpload begins (or restarts) transmission for a queued, paused or
// failed record. Unknown ids are tolerated; terminal records are no-ops.
func (m *Manager) StartUpload(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(ctx, id)
}

// ResumeUpload continues a paused or failed upload from its last committed
// offset. It clears the paused-by-network tag and resets the retry budget for
// records in error.
func (m *Manager) ResumeUpload(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(ctx, id)
}

// PauseUpload requests suspension of a running upload. The session stops at
// the next chunk boundary; no acknowledged bytes are lost. Unknown ids and
// non-running records are tolerated.
func (m *Manager) PauseUpload(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.active[id]; ok {
		r.cause.Store(int32(pauseByUser))
		r.session.Pause()
		m.logger.Info("upload pause requested",
			logging.String(logging.FieldUploadID, id),
		)
		return nil
	}

	record, err := m.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load upload record: %w", err)
	}
	if record == nil {
		m.logger.Warn("pause requested for unknown upload",
			logging.String(logging.FieldUploadID, id),
		)
		return nil
	}
	if record.State != records.StateRunning {
		m.logger.Debug("pause ignored",
			logging.String(logging.FieldUploadID, id),
			logging.String(logging.FieldState, string(record.State)),
		)
		return nil
	}

	// A record stuck in running without a live session was interrupted.
	record.SetPaused(false)
	if err := m.store.Put(ctx, record); err != nil {
		return fmt.Errorf("persist upload record: %w", err)
	}
	return nil
}

// CancelUpload terminates an upload in any non-terminal state. The server
// side session is released and any late callbacks from the in-flight session
// are discarded. Cancel absorbs a pending network auto-resume.
func (m *Manager) CancelUpload(ctx context.Context, id string) error {
	m.mu.Lock()

	m.gens[id]++
	r := m.active[id]
	delete(m.active, id)
	delete(m.samples, id)

	var record *records.Record
	if r != nil {
		record = r.record
	} else {
		loaded, err := m.store.Get(ctx, id)
		if err != nil {
			m.mu.Unlock()
			return fmt.Errorf("load upload record: %w", err)
		}
		record = loaded
	}

	if record == nil {
		m.mu.Unlock()
		m.logger.Warn("cancel requested for unknown upload",
			logging.String(logging.FieldUploadID, id),
		)
		return nil
	}
	if record.State.Terminal() {
		m.mu.Unlock()
		return nil
	}

	record.SetCanceled()
	if err := m.store.Put(ctx, record); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("persist upload record: %w", err)
	}
	m.mu.Unlock()

	if r != nil {
		if err := r.session.Abort(ctx); err != nil {
			m.logger.Warn("failed to release upload session",
				logging.Error(err),
				logging.String(logging.FieldUploadID, id),
			)
		}
		r.cancel()
	}

	m.logger.Info("upload canceled",
		logging.String(logging.FieldUploadID, id),
	)
	return nil
}

// RemoveUpload discards a record, canceling transmission first when active.
func (m *Manager) RemoveUpload(ctx context.Context, id string) error {
	if err := m.CancelUpload(ctx, id); err != nil {
		return err
	}
	if err := m.store.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove upload record: %w", err)
	}
	m.logger.Info("upload removed",
		logging.String(logging.FieldUploadID, id),
	)
	return nil
}

// CleanupTerminal removes all success, error and canceled records.
func (m *Manager) CleanupTerminal(ctx context.Context) (int64, error) {
	return m.store.RemoveByState(ctx, records.StateSuccess, records.StateError, records.StateCanceled)
}

// CleanupFailed removes error and canceled records only. Success records are
// never removed implicitly; their result URLs stay inspectable until the
// caller discards them.
func (m *Manager) CleanupFailed(ctx context.Context) (int64, error) {
	return m.store.RemoveByState(ctx, records.StateError, records.StateCanceled)
}

// startLocked transitions a record to running and launches its runner. The
// caller must hold m.mu.
func (m *Manager) startLocked(ctx context.Context, id string) error {
	if !m.running {
		return errors.New("manager is not running")
	}
	if _, ok := m.active[id]; ok {
		return nil
	}

	record, err := m.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load upload record: %w", err)
	}
	if record == nil {
		m.logger.Warn("start requested for unknown upload",
			logging.String(logging.FieldUploadID, id),
		)
		return nil
	}
	if record.State.Terminal() {
		return nil
	}

	if record.State == records.StateError {
		record.Attempts = 0
	}
	record.SetRunning(time.Now())
	if err := m.store.Put(ctx, record); err != nil {
		return fmt.Errorf("persist upload record: %w", err)
	}

	m.gens[id]++
	gen := m.gens[id]
	delete(m.samples, id)

	runCtx, cancel := context.WithCancel(m.runCtx)
	r := &runner{
		id:     id,
		gen:    gen,
		record: record,
		cancel: cancel,
	}
	r.session = transfer.NewSession(m.client, m.logger, transfer.Spec{
		SourcePath: record.SourcePath,
		RemotePath: record.RemotePath(),
		MimeType:   record.MimeType,
		TotalBytes: record.TotalBytes,
		SessionURI: record.SessionURI,
		ChunkSize:  m.chunkSize,
		OnProgress: func(bytes, _ int64) {
			m.applyProgress(id, gen, bytes)
		},
	})
	m.active[id] = r

	m.wg.Add(1)
	go m.run(runCtx, r)

	m.logger.Info("upload started",
		logging.String(logging.FieldUploadID, id),
		logging.String("file_name", record.FileName),
		logging.Int64("offset", record.BytesTransferred),
	)
	return nil
}
