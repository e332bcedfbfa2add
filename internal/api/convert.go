package api

import (
	"time"

	"ferry/internal/notifications"
	"ferry/internal/records"
)

// FromRecord converts an upload record plus its derived metrics to the API
// representation.
func FromRecord(record *records.Record, metrics Metrics) Upload {
	if record == nil {
		return Upload{}
	}

	dto := Upload{
		ID:               record.ID,
		OwnerID:          record.OwnerID,
		Destination:      record.Destination,
		FileName:         record.FileName,
		MimeType:         record.MimeType,
		TotalBytes:       record.TotalBytes,
		BytesTransferred: record.BytesTransferred,
		State:            string(record.State),
		PausedByNetwork:  record.PausedByNetwork,
		ErrorKind:        record.ErrorKind,
		ErrorMessage:     record.ErrorMessage,
		ResultURL:        record.ResultURL,
		ResultPath:       record.ResultPath,
		Attempts:         record.Attempts,
		Context:          record.Context,
		Percentage:       metrics.Percentage,
		ThroughputBPS:    metrics.ThroughputBPS,
		ETASeconds:       metrics.ETASeconds,
	}
	dto.CreatedAt = FormatTime(record.CreatedAt)
	dto.UpdatedAt = FormatTime(record.UpdatedAt)
	if record.StartedAt != nil {
		dto.StartedAt = FormatTime(*record.StartedAt)
	}
	return dto
}

// FromNotification converts a persisted notification to its API form.
func FromNotification(n notifications.Notification) Notification {
	return Notification{
		ID:        n.ID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Message:   n.Message,
		Context:   n.Context,
		CreatedAt: FormatTime(n.CreatedAt),
	}
}

// FromNotifications converts a slice of persisted notifications.
func FromNotifications(list []notifications.Notification) []Notification {
	if len(list) == 0 {
		return nil
	}
	out := make([]Notification, 0, len(list))
	for _, n := range list {
		out = append(out, FromNotification(n))
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns an empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
