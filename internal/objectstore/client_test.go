package objectstore_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ferry/internal/config"
	"ferry/internal/logging"
	"ferry/internal/objectstore"
)

func newTestClient(t *testing.T, handler http.Handler) (*objectstore.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Store.BaseURL = server.URL
	cfg.Store.Token = "secret"
	return objectstore.NewClient(&cfg, logging.NewNop()), server
}

func TestInitiateReturnsSessionURI(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.Header.Get("X-Upload-Path"); got != "articles/owner/file.png" {
			t.Errorf("unexpected upload path %q", got)
		}
		w.Header().Set("Location", "/v1/sessions/sess-1")
		w.WriteHeader(http.StatusCreated)
	}))

	uri, err := client.Initiate(context.Background(), "articles/owner/file.png", "image/png", 1024)
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	if uri != server.URL+"/v1/sessions/sess-1" {
		t.Fatalf("unexpected session URI %q", uri)
	}
}

func TestSendRangeIncomplete(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Range"); got != "bytes 0-3/10" {
			t.Errorf("unexpected content range %q", got)
		}
		w.Header().Set("Range", "bytes=0-3")
		w.WriteHeader(http.StatusPermanentRedirect)
	}))

	status, err := client.SendRange(context.Background(), server.URL+"/v1/sessions/s", strings.NewReader("abcd"), 0, 4, 10)
	if err != nil {
		t.Fatalf("SendRange failed: %v", err)
	}
	if status.Done {
		t.Fatal("expected incomplete status")
	}
	if status.Committed != 4 {
		t.Fatalf("expected 4 committed bytes, got %d", status.Committed)
	}
}

func TestSendRangeFinalizes(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"url":"https://cdn.example.com/a.png","path":"articles/a.png"}`))
	}))

	status, err := client.SendRange(context.Background(), server.URL+"/v1/sessions/s", strings.NewReader("abcd"), 6, 4, 10)
	if err != nil {
		t.Fatalf("SendRange failed: %v", err)
	}
	if !status.Done {
		t.Fatal("expected finalized status")
	}
	if status.Result.URL != "https://cdn.example.com/a.png" {
		t.Fatalf("unexpected result url %q", status.Result.URL)
	}
	if status.Committed != 10 {
		t.Fatalf("expected committed to equal total, got %d", status.Committed)
	}
}

func TestOffsetQueryEmptySession(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Range"); got != "bytes */10" {
			t.Errorf("unexpected content range %q", got)
		}
		w.WriteHeader(http.StatusPermanentRedirect)
	}))

	status, err := client.Offset(context.Background(), server.URL+"/v1/sessions/s", 10)
	if err != nil {
		t.Fatalf("Offset failed: %v", err)
	}
	if status.Committed != 0 {
		t.Fatalf("expected 0 committed for empty Range header, got %d", status.Committed)
	}
}

func TestAbortTreatsGoneSessionAsSuccess(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	if err := client.Abort(context.Background(), server.URL+"/v1/sessions/s"); err != nil {
		t.Fatalf("expected abort on gone session to succeed, got %v", err)
	}
}

func TestDeleteMissingObjectIsSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	if err := client.Delete(context.Background(), "articles/gone.png"); err != nil {
		t.Fatalf("expected delete of missing object to succeed, got %v", err)
	}
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		name   string
		code   int
		marker error
	}{
		{"forbidden", http.StatusForbidden, objectstore.ErrPermissionDenied},
		{"unauthorized", http.StatusUnauthorized, objectstore.ErrPermissionDenied},
		{"not found", http.StatusNotFound, objectstore.ErrNotFound},
		{"bad request", http.StatusBadRequest, objectstore.ErrValidation},
		{"server error", http.StatusInternalServerError, objectstore.ErrTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
			}))
			_, err := client.Initiate(context.Background(), "p", "image/png", 1)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v classification, got %v", tc.marker, err)
			}
		})
	}
}

func TestTransportFailureIsNetworkUnavailable(t *testing.T) {
	cfg := config.Default()
	cfg.Store.BaseURL = "http://127.0.0.1:1"
	client := objectstore.NewClient(&cfg, logging.NewNop())

	_, err := client.Initiate(context.Background(), "p", "image/png", 1)
	if !errors.Is(err, objectstore.ErrNetworkUnavailable) {
		t.Fatalf("expected network unavailable, got %v", err)
	}
}

func TestKindOfAndRetryable(t *testing.T) {
	if objectstore.KindOf(objectstore.Wrap(objectstore.ErrValidation, "op", "m", nil)) != objectstore.KindValidation {
		t.Fatal("expected validation kind")
	}
	if objectstore.IsRetryable(objectstore.Wrap(objectstore.ErrPermissionDenied, "op", "m", nil)) {
		t.Fatal("permission denied must not be retryable")
	}
	if !objectstore.IsRetryable(objectstore.Wrap(objectstore.ErrTransient, "op", "m", nil)) {
		t.Fatal("transient must be retryable")
	}
	if !objectstore.IsRetryable(errors.New("mystery")) {
		t.Fatal("unknown errors retry with backoff")
	}
}
