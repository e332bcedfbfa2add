package ipc

import "ferry/internal/api"

// Upload mirrors the API upload DTO for IPC callers.
type Upload = api.Upload

// Notification mirrors the API notification DTO for IPC callers.
type Notification = api.Notification

// StartRequest triggers daemon startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	DatabasePath  string         `json:"database_path"`
	LockPath      string         `json:"lock_path"`
	SocketPath    string         `json:"socket_path"`
	NetworkOnline bool           `json:"network_online"`
	StateCounts   map[string]int `json:"state_counts"`
}

// UploadAddRequest queues a file for upload.
type UploadAddRequest struct {
	SourcePath  string `json:"source_path"`
	OwnerID     string `json:"owner_id"`
	Destination string `json:"destination"`
	MimeType    string `json:"mime_type"`
	Context     string `json:"context"`
	Start       bool   `json:"start"`
}

// UploadAddResponse contains the queued upload snapshot.
type UploadAddResponse struct {
	Upload Upload `json:"upload"`
}

// UploadControlRequest addresses one upload by id.
type UploadControlRequest struct {
	ID string `json:"id"`
}

// UploadControlResponse acknowledges a control operation.
type UploadControlResponse struct{}

// UploadListRequest filters upload listing. States narrows the result to the
// named states; All includes terminal records.
type UploadListRequest struct {
	All    bool     `json:"all"`
	States []string `json:"states"`
}

// UploadListResponse contains upload snapshots.
type UploadListResponse struct {
	Uploads []Upload `json:"uploads"`
}

// UploadDescribeRequest fetches a single upload by id.
type UploadDescribeRequest struct {
	ID string `json:"id"`
}

// UploadDescribeResponse contains a single upload snapshot.
type UploadDescribeResponse struct {
	Upload Upload `json:"upload"`
}

// UploadCleanupRequest removes finished records. FailedOnly keeps successes.
type UploadCleanupRequest struct {
	FailedOnly bool `json:"failed_only"`
}

// UploadCleanupResponse reports the number of removed records.
type UploadCleanupResponse struct {
	Removed int64 `json:"removed"`
}

// NotificationListRequest fetches recent notifications.
type NotificationListRequest struct {
	Limit int `json:"limit"`
}

// NotificationListResponse contains notifications, newest first.
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
}

// NotificationDismissRequest removes one notification by id.
type NotificationDismissRequest struct {
	ID int64 `json:"id"`
}

// NotificationDismissResponse acknowledges dismissal.
type NotificationDismissResponse struct{}

// NotificationClearRequest empties the notification log.
type NotificationClearRequest struct{}

// NotificationClearResponse acknowledges clearing.
type NotificationClearResponse struct{}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
