package manager

import (
	"context"
	"fmt"
	"time"

	"ferry/internal/format"
	"ferry/internal/logging"
	"ferry/internal/notifications"
	"ferry/internal/records"
)

const notifyTimeout = 10 * time.Second

// Terminal transitions fan out to the notification sinks. Cancellation emits
// nothing: it is silent success from the user's perspective.

func (m *Manager) notifySuccess(record *records.Record) {
	m.publish(notifications.EventUploadCompleted, notifications.Payload{
		Message: fmt.Sprintf("%s uploaded (%s)", record.FileName, format.FileSize(record.TotalBytes)),
		Context: notificationContext(record),
	})
}

func (m *Manager) notifyFailed(record *records.Record) {
	m.publish(notifications.EventUploadFailed, notifications.Payload{
		Message: fmt.Sprintf("%s failed: %s", record.FileName, record.ErrorMessage),
		Context: notificationContext(record),
	})
}

func (m *Manager) publish(event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := m.notifier.Publish(ctx, event, payload); err != nil {
		m.logger.Warn("notification publish failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, string(event)),
		)
	}
}

func notificationContext(record *records.Record) map[string]string {
	out := map[string]string{"upload_id": record.ID}
	if record.Context != "" {
		out["context"] = record.Context
	}
	if record.ResultURL != "" {
		out["result_url"] = record.ResultURL
	}
	if record.ErrorKind != "" {
		out["error_kind"] = record.ErrorKind
	}
	return out
}
