// Package notifications fans upload lifecycle events out to the persisted
// notification log and, when configured, an ntfy push topic.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ferry/internal/config"
	"ferry/internal/logging"
)

const userAgent = "Ferry/0.1.0"

// Publisher is the notification surface exposed to the upload manager.
type Publisher interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// Service renders events and delivers them to every configured sink. A nil
// log or an empty ntfy topic simply disables that sink.
type Service struct {
	log    *Log
	ntfy   *ntfySink
	logger *slog.Logger
}

// NewService builds the fan-out from configuration.
func NewService(cfg *config.Config, logger *slog.Logger, log *Log) *Service {
	svc := &Service{
		log:    log,
		logger: logging.NewComponentLogger(logger, "notifications"),
	}

	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic != "" {
		timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		svc.ntfy = &ntfySink{
			endpoint: topic,
			client:   &http.Client{Timeout: timeout},
		}
	}
	return svc
}

// Publish renders the event and delivers it to all sinks. Sink failures are
// collected rather than short-circuiting, so one broken sink never silences
// the others.
func (s *Service) Publish(ctx context.Context, event Event, payload Payload) error {
	rendered := render(event, payload)

	var errs []error
	if s.log != nil {
		n := Notification{
			Kind:      event,
			Title:     rendered.Title,
			Message:   rendered.Message,
			Context:   rendered.Context,
			CreatedAt: time.Now().UTC(),
		}
		if _, err := s.log.Append(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	if s.ntfy != nil {
		if err := s.ntfy.send(ctx, rendered); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		s.logger.Warn("notification delivery failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, string(event)),
		)
		return err
	}
	return nil
}

// Recent returns the newest persisted notifications.
func (s *Service) Recent(ctx context.Context, limit int) ([]Notification, error) {
	if s.log == nil {
		return nil, nil
	}
	return s.log.Recent(ctx, limit)
}

// Dismiss removes one persisted notification.
func (s *Service) Dismiss(ctx context.Context, id int64) error {
	if s.log == nil {
		return nil
	}
	return s.log.Dismiss(ctx, id)
}

// Clear removes all persisted notifications.
func (s *Service) Clear(ctx context.Context) error {
	if s.log == nil {
		return nil
	}
	return s.log.Clear(ctx)
}

// Test delivers a probe notification through every sink.
func (s *Service) Test(ctx context.Context) error {
	return s.Publish(ctx, EventTest, Payload{})
}

// render fills in presentation defaults for events the caller did not fully
// describe.
func render(event Event, payload Payload) Payload {
	if payload.Title == "" {
		payload.Title = defaultTitle(event)
	}
	if payload.Message == "" {
		payload.Message = string(event)
	}
	if len(payload.Tags) == 0 {
		payload.Tags = defaultTags(event)
	}
	if payload.Priority == "" && (event == EventUploadFailed || event == EventNetworkOffline) {
		payload.Priority = "high"
	}
	return payload
}

func defaultTitle(event Event) string {
	switch event {
	case EventUploadQueued:
		return "Ferry - Upload Queued"
	case EventUploadStarted:
		return "Ferry - Upload Started"
	case EventUploadCompleted:
		return "Ferry - Upload Complete"
	case EventUploadFailed:
		return "Ferry - Upload Failed"
	case EventUploadCanceled:
		return "Ferry - Upload Canceled"
	case EventNetworkOffline:
		return "Ferry - Offline"
	case EventNetworkOnline:
		return "Ferry - Back Online"
	case EventTest:
		return "Ferry - Test"
	default:
		return "Ferry"
	}
}

func defaultTags(event Event) []string {
	switch event {
	case EventUploadCompleted:
		return []string{"ferry", "upload", "completed"}
	case EventUploadFailed:
		return []string{"ferry", "upload", "error"}
	case EventUploadCanceled:
		return []string{"ferry", "upload", "canceled"}
	case EventNetworkOffline, EventNetworkOnline:
		return []string{"ferry", "network"}
	case EventTest:
		return []string{"ferry", "test"}
	default:
		return []string{"ferry"}
	}
}

type ntfySink struct {
	endpoint string
	client   *http.Client
}

func (n *ntfySink) send(ctx context.Context, data Payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.Message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.Title != "" {
		req.Header.Set("Title", data.Title)
	}
	if len(data.Tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.Tags, ","))
	}
	if data.Priority != "" && data.Priority != "default" {
		req.Header.Set("Priority", data.Priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
