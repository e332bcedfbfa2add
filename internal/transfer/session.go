package transfer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"ferry/internal/logging"
	"ferry/internal/objectstore"
)

// ErrPaused is returned by Run when transmission was suspended by Pause.
// The session stays resumable from its committed offset.
var ErrPaused = errors.New("transfer paused")

// ErrAborted is returned by Run when the session was aborted.
var ErrAborted = errors.New("transfer aborted")

// ProgressFunc receives coalesced progress reports, at most one per chunk.
type ProgressFunc func(bytesTransferred, totalBytes int64)

// Spec describes one transfer.
type Spec struct {
	SourcePath string
	RemotePath string
	MimeType   string
	TotalBytes int64
	// SessionURI resumes an existing server-side session when non-empty
	// (e.g. after a daemon restart).
	SessionURI string
	ChunkSize  int64
	OnProgress ProgressFunc
}

// Session moves bytes from a local file to the object store. A session may be
// run multiple times: each Run continues from the store's committed offset,
// so acknowledged bytes are never retransmitted.
type Session struct {
	client  *objectstore.Client
	logger  *slog.Logger
	sampler *logging.ProgressSampler

	spec    Spec
	paused  atomic.Bool
	aborted atomic.Bool

	mu         sync.Mutex
	sessionURI string
	offset     int64
}

// NewSession constructs a session. The chunk size falls back to 4 MiB.
func NewSession(client *objectstore.Client, logger *slog.Logger, spec Spec) *Session {
	if spec.ChunkSize <= 0 {
		spec.ChunkSize = 4 << 20
	}
	return &Session{
		client:     client,
		logger:     logging.NewComponentLogger(logger, "transfer"),
		sampler:    logging.NewProgressSampler(10),
		spec:       spec,
		sessionURI: spec.SessionURI,
	}
}

// SessionURI returns the negotiated server-side session URI, empty before
// the first Run.
func (s *Session) SessionURI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionURI
}

// Offset returns the last committed byte offset.
func (s *Session) Offset() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// Pause requests suspension. The running transfer stops at the next chunk
// boundary; no acknowledged bytes are lost.
func (s *Session) Pause() {
	s.paused.Store(true)
}

// Resume clears a pause request so the session can be run again.
func (s *Session) Resume() {
	s.paused.Store(false)
}

// Abort terminates the session and releases the server-side resource.
// Idempotent: aborting an already-terminated session succeeds.
func (s *Session) Abort(ctx context.Context) error {
	if s.aborted.Swap(true) {
		return nil
	}
	s.mu.Lock()
	uri := s.sessionURI
	s.sessionURI = ""
	s.mu.Unlock()
	if uri == "" {
		return nil
	}
	return s.client.Abort(ctx, uri)
}

// Run transmits until the upload finalizes, a pause or abort takes effect, or
// an error occurs. It returns ErrPaused/ErrAborted for cooperative stops;
// other errors carry the objectstore classification.
func (s *Session) Run(ctx context.Context) (objectstore.Result, error) {
	if s.aborted.Load() {
		return objectstore.Result{}, ErrAborted
	}
	if s.paused.Load() {
		return objectstore.Result{}, ErrPaused
	}

	file, err := os.Open(s.spec.SourcePath)
	if err != nil {
		return objectstore.Result{}, objectstore.Wrap(objectstore.ErrNotFound, "open source", s.spec.SourcePath, err)
	}
	defer file.Close()

	if err := s.ensureSession(ctx); err != nil {
		return objectstore.Result{}, err
	}

	// Sync with the store's committed offset so resumed runs never resend
	// acknowledged bytes.
	status, err := s.client.Offset(ctx, s.SessionURI(), s.spec.TotalBytes)
	if err != nil {
		return objectstore.Result{}, err
	}
	if status.Done {
		s.finish()
		return status.Result, nil
	}
	s.setOffset(status.Committed)
	s.report()

	for {
		select {
		case <-ctx.Done():
			return objectstore.Result{}, ctx.Err()
		default:
		}
		if s.aborted.Load() {
			return objectstore.Result{}, ErrAborted
		}
		if s.paused.Load() {
			return objectstore.Result{}, ErrPaused
		}

		offset := s.Offset()
		length := s.spec.TotalBytes - offset
		if length > s.spec.ChunkSize {
			length = s.spec.ChunkSize
		}

		chunk := io.NewSectionReader(file, offset, length)
		status, err := s.client.SendRange(ctx, s.SessionURI(), chunk, offset, length, s.spec.TotalBytes)
		if err != nil {
			return objectstore.Result{}, err
		}

		if status.Committed > offset {
			s.setOffset(status.Committed)
			s.report()
		}
		if status.Done {
			s.finish()
			return status.Result, nil
		}
		if status.Committed <= offset {
			return objectstore.Result{}, objectstore.Wrap(objectstore.ErrTransient, "send range", "store did not advance committed offset", nil)
		}
	}
}

func (s *Session) ensureSession(ctx context.Context) error {
	if s.SessionURI() != "" {
		return nil
	}
	uri, err := s.client.Initiate(ctx, s.spec.RemotePath, s.spec.MimeType, s.spec.TotalBytes)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessionURI = uri
	s.offset = 0
	s.mu.Unlock()
	return nil
}

func (s *Session) setOffset(offset int64) {
	s.mu.Lock()
	if offset > s.offset {
		s.offset = offset
	}
	s.mu.Unlock()
}

func (s *Session) finish() {
	s.setOffset(s.spec.TotalBytes)
	s.report()
}

func (s *Session) report() {
	offset := s.Offset()
	if s.spec.OnProgress != nil {
		s.spec.OnProgress(offset, s.spec.TotalBytes)
	}
	percent := 100.0
	if s.spec.TotalBytes > 0 {
		percent = float64(offset) / float64(s.spec.TotalBytes) * 100
	}
	if s.sampler.ShouldLog(percent) {
		s.logger.Debug("transfer progress",
			logging.String("remote_path", s.spec.RemotePath),
			logging.Int64("bytes", offset),
			logging.Int64("total", s.spec.TotalBytes),
		)
	}
}
