package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ferry/internal/logging"
	"ferry/internal/notifications"
	"ferry/internal/testsupport"
)

func TestPublishSkipsNtfyWhenTopicMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""

	svc := notifications.NewService(cfg, logging.NewNop(), nil)
	err := svc.Publish(context.Background(), notifications.EventUploadCompleted, notifications.Payload{
		Message: "guide.pdf uploaded",
	})
	if err != nil {
		t.Fatalf("Publish without sinks: %v", err)
	}
}

func TestPublishFormatsNtfyRequests(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "upload completed",
			event: notifications.EventUploadCompleted,
			payload: notifications.Payload{
				Message: "guide.pdf uploaded (4.0 MiB)",
			},
			expectTitle:   "Ferry - Upload Complete",
			expectMessage: "guide.pdf uploaded (4.0 MiB)",
			expectTags:    "ferry,upload,completed",
		},
		{
			name:  "upload failed",
			event: notifications.EventUploadFailed,
			payload: notifications.Payload{
				Message: "guide.pdf failed: permission denied",
			},
			expectTitle:    "Ferry - Upload Failed",
			expectMessage:  "guide.pdf failed: permission denied",
			expectTags:     "ferry,upload,error",
			expectPriority: "high",
		},
		{
			name:          "test event uses defaults",
			event:         notifications.EventTest,
			payload:       notifications.Payload{},
			expectTitle:   "Ferry - Test",
			expectMessage: "test",
			expectTags:    "ferry,test",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := testsupport.NewConfig(t)
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(cfg, logging.NewNop(), nil)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("Publish: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestPublishPersistsToLog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""

	log, err := notifications.OpenLog(cfg)
	if err != nil {
		t.Fatalf("OpenLog: %v", err)
	}
	defer log.Close()

	svc := notifications.NewService(cfg, logging.NewNop(), log)
	err = svc.Publish(context.Background(), notifications.EventUploadFailed, notifications.Payload{
		Message: "report.pdf failed",
		Context: map[string]string{"upload_id": "abc"},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	recent, err := svc.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(recent))
	}
	n := recent[0]
	if n.Kind != notifications.EventUploadFailed {
		t.Fatalf("unexpected kind %q", n.Kind)
	}
	if n.Message != "report.pdf failed" {
		t.Fatalf("unexpected message %q", n.Message)
	}
	if n.Context["upload_id"] != "abc" {
		t.Fatalf("context not persisted: %v", n.Context)
	}
}

func TestPublishStillPersistsWhenNtfyFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL

	log, err := notifications.OpenLog(cfg)
	if err != nil {
		t.Fatalf("OpenLog: %v", err)
	}
	defer log.Close()

	svc := notifications.NewService(cfg, logging.NewNop(), log)
	if err := svc.Publish(context.Background(), notifications.EventUploadCompleted, notifications.Payload{Message: "x"}); err == nil {
		t.Fatal("expected error from failing ntfy sink")
	}

	recent, err := svc.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("log entry missing despite ntfy failure, got %d entries", len(recent))
	}
}
