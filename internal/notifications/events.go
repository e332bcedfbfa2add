package notifications

import "time"

// Event identifies the kind of occurrence being announced.
type Event string

const (
	EventUploadQueued    Event = "upload_queued"
	EventUploadStarted   Event = "upload_started"
	EventUploadCompleted Event = "upload_completed"
	EventUploadFailed    Event = "upload_failed"
	EventUploadCanceled  Event = "upload_canceled"
	EventNetworkOffline  Event = "network_offline"
	EventNetworkOnline   Event = "network_online"
	EventTest            Event = "test"
)

// Payload carries the event-specific details used to render a notification.
type Payload struct {
	Title    string
	Message  string
	Priority string
	Tags     []string
	Context  map[string]string
}

// Notification is one rendered, persisted announcement.
type Notification struct {
	ID        int64             `json:"id"`
	Kind      Event             `json:"kind"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Context   map[string]string `json:"context,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
