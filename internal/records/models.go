package records

import (
	"path"
	"strings"
	"time"
)

// State represents the lifecycle of an upload record.
type State string

const (
	StateQueued   State = "queued"
	StateRunning  State = "running"
	StatePaused   State = "paused"
	StateSuccess  State = "success"
	StateError    State = "error"
	StateCanceled State = "canceled"
)

var allStates = []State{
	StateQueued,
	StateRunning,
	StatePaused,
	StateSuccess,
	StateError,
	StateCanceled,
}

var stateSet = func() map[State]struct{} {
	set := make(map[State]struct{}, len(allStates))
	for _, state := range allStates {
		set[state] = struct{}{}
	}
	return set
}()

// AllStates returns the ordered list of known states.
func AllStates() []State {
	cp := make([]State, len(allStates))
	copy(cp, allStates)
	return cp
}

// ActiveStates returns the states an upload can still make progress from.
func ActiveStates() []State {
	return []State{StateQueued, StateRunning, StatePaused, StateError}
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stateSet[normalized]
	return normalized, ok
}

// Terminal reports whether no further transitions are permitted.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateCanceled
}

// Active reports whether the state is eligible for control operations.
func (s State) Active() bool {
	switch s {
	case StateQueued, StateRunning, StatePaused, StateError:
		return true
	default:
		return false
	}
}

// Record is one upload's durable metadata, persisted in SQLite.
type Record struct {
	ID               string
	OwnerID          string
	Destination      string
	FileName         string
	SourcePath       string
	MimeType         string
	TotalBytes       int64
	BytesTransferred int64
	State            State
	PausedByNetwork  bool
	ErrorKind        string
	ErrorMessage     string
	ResultURL        string
	ResultPath       string
	SessionURI       string
	Attempts         int
	Context          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	StartedAt        *time.Time
	LastProgressAt   *time.Time
}

// RemotePath returns the destination path for this upload, namespaced by
// owner and record id so distinct uploads never collide.
func (r *Record) RemotePath() string {
	return path.Join(r.Destination, r.OwnerID, r.ID, r.FileName)
}

// SetProgress advances the byte counter. Progress never exceeds TotalBytes
// and never moves backward; out-of-order reports are clamped.
func (r *Record) SetProgress(bytes int64, at time.Time) {
	if bytes < r.BytesTransferred {
		return
	}
	if bytes > r.TotalBytes {
		bytes = r.TotalBytes
	}
	r.BytesTransferred = bytes
	t := at.UTC()
	r.LastProgressAt = &t
}

// SetRunning marks the record as transferring, stamping StartedAt on the
// first transition.
func (r *Record) SetRunning(at time.Time) {
	r.State = StateRunning
	r.PausedByNetwork = false
	r.ErrorKind = ""
	r.ErrorMessage = ""
	if r.StartedAt == nil {
		t := at.UTC()
		r.StartedAt = &t
	}
}

// SetPaused marks the record as paused, tagging network-initiated pauses so
// reconnection can auto-resume only those.
func (r *Record) SetPaused(byNetwork bool) {
	r.State = StatePaused
	r.PausedByNetwork = byNetwork
}

// SetFailed marks the record as failed with a classified kind and a short
// human message.
func (r *Record) SetFailed(kind, message string) {
	r.State = StateError
	r.PausedByNetwork = false
	r.ErrorKind = kind
	r.ErrorMessage = message
	r.ResultURL = ""
	r.ResultPath = ""
}

// SetSucceeded marks the record as finished, recording the stored object.
func (r *Record) SetSucceeded(url, resultPath string) {
	r.State = StateSuccess
	r.PausedByNetwork = false
	r.ErrorKind = ""
	r.ErrorMessage = ""
	r.ResultURL = url
	r.ResultPath = resultPath
	r.BytesTransferred = r.TotalBytes
	r.SessionURI = ""
}

// SetCanceled marks the record as canceled. Cancel absorbs any pending
// network auto-resume.
func (r *Record) SetCanceled() {
	r.State = StateCanceled
	r.PausedByNetwork = false
	r.SessionURI = ""
}
