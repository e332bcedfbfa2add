package testsupport

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// FakeObjectStore is an in-process object store speaking the resumable
// upload protocol: session creation, byte-range PUTs with 308 "resume
// incomplete" acknowledgements, offset queries, finalize, abort and delete.
type FakeObjectStore struct {
	server *httptest.Server

	mu            sync.Mutex
	nextID        int
	sessions      map[string]*fakeSession
	objects       map[string][]byte
	failSends     int
	failStatus    int
	sendCalls     int
	bytesReceived int64
	sendDelay     time.Duration
}

type fakeSession struct {
	path  string
	mime  string
	total int64
	data  []byte
}

// NewFakeObjectStore starts the fake store and registers shutdown cleanup.
func NewFakeObjectStore(t testing.TB) *FakeObjectStore {
	t.Helper()

	f := &FakeObjectStore{
		sessions: make(map[string]*fakeSession),
		objects:  make(map[string][]byte),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions", f.handleCreate)
	mux.HandleFunc("PUT /v1/sessions/{id}", f.handlePut)
	mux.HandleFunc("DELETE /v1/sessions/{id}", f.handleAbort)
	mux.HandleFunc("DELETE /v1/files/{path...}", f.handleDelete)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the store's base URL.
func (f *FakeObjectStore) URL() string {
	return f.server.URL
}

// SetSendDelay slows each byte-range PUT, giving tests room to interleave
// control operations mid-transfer.
func (f *FakeObjectStore) SetSendDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendDelay = d
}

// FailNextSends makes the next n byte-range PUTs fail with the given HTTP
// status before any body bytes are consumed.
func (f *FakeObjectStore) FailNextSends(n, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSends = n
	f.failStatus = status
}

// SendCalls reports how many byte-range PUTs were attempted.
func (f *FakeObjectStore) SendCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCalls
}

// BytesReceived reports the total body bytes read off the wire across all
// byte-range PUTs, including any the store later rejected.
func (f *FakeObjectStore) BytesReceived() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bytesReceived
}

// Object returns the finalized bytes stored under path.
func (f *FakeObjectStore) Object(path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[path]
	return data, ok
}

// SessionCount reports how many sessions are still open.
func (f *FakeObjectStore) SessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func (f *FakeObjectStore) handleCreate(w http.ResponseWriter, r *http.Request) {
	total, err := strconv.ParseInt(r.Header.Get("X-Upload-Content-Length"), 10, 64)
	if err != nil || total < 0 {
		http.Error(w, "bad content length", http.StatusBadRequest)
		return
	}
	path := r.Header.Get("X-Upload-Path")
	if path == "" {
		http.Error(w, "missing upload path", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.nextID++
	id := fmt.Sprintf("session-%d", f.nextID)
	f.sessions[id] = &fakeSession{
		path:  path,
		mime:  r.Header.Get("X-Upload-Content-Type"),
		total: total,
	}
	f.mu.Unlock()

	w.Header().Set("Location", "/v1/sessions/"+id)
	w.WriteHeader(http.StatusCreated)
}

func (f *FakeObjectStore) handlePut(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	f.mu.Lock()
	session, ok := f.sessions[id]
	f.mu.Unlock()
	if !ok {
		http.Error(w, "no such session", http.StatusNotFound)
		return
	}

	contentRange := r.Header.Get("Content-Range")
	if strings.HasPrefix(contentRange, "bytes */") {
		f.respondStatus(w, id, session)
		return
	}

	start, end, err := parseContentRange(contentRange)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.sendCalls++
	delay := f.sendDelay
	if f.failSends > 0 {
		f.failSends--
		status := f.failStatus
		f.mu.Unlock()
		http.Error(w, "injected failure", status)
		return
	}
	committed := int64(len(session.data))
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if start != committed {
		http.Error(w, fmt.Sprintf("offset %d does not match committed %d", start, committed), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, end-start+1))
	if err != nil {
		http.Error(w, "read body", http.StatusInternalServerError)
		return
	}

	f.mu.Lock()
	f.bytesReceived += int64(len(body))
	session.data = append(session.data, body...)
	f.mu.Unlock()

	f.respondStatus(w, id, session)
}

func (f *FakeObjectStore) handleAbort(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	f.mu.Lock()
	_, ok := f.sessions[id]
	delete(f.sessions, id)
	f.mu.Unlock()

	if !ok {
		http.Error(w, "no such session", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeObjectStore) handleDelete(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")

	f.mu.Lock()
	_, ok := f.objects[path]
	delete(f.objects, path)
	f.mu.Unlock()

	if !ok {
		http.Error(w, "no such object", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondStatus answers with 308 plus the committed range while the session
// is incomplete, or finalizes the object once all bytes have arrived.
func (f *FakeObjectStore) respondStatus(w http.ResponseWriter, id string, session *fakeSession) {
	f.mu.Lock()
	committed := int64(len(session.data))
	done := committed == session.total
	if done {
		f.objects[session.path] = session.data
		delete(f.sessions, id)
	}
	f.mu.Unlock()

	if !done {
		if committed > 0 {
			w.Header().Set("Range", fmt.Sprintf("bytes=0-%d", committed-1))
		}
		w.WriteHeader(http.StatusPermanentRedirect)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"url":%q,"path":%q}`, f.server.URL+"/files/"+session.path, session.path)
}

func parseContentRange(value string) (start, end int64, err error) {
	value = strings.TrimPrefix(value, "bytes ")
	rangePart, _, ok := strings.Cut(value, "/")
	if !ok {
		return 0, 0, fmt.Errorf("malformed content range %q", value)
	}
	first, last, ok := strings.Cut(rangePart, "-")
	if !ok {
		return 0, 0, fmt.Errorf("malformed content range %q", value)
	}
	start, err = strconv.ParseInt(first, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	end, err = strconv.ParseInt(last, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
