package storeclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"taskboard/internal/board"
	"taskboard/internal/model"
	"taskboard/pkg/circuitbreaker"
	"taskboard/pkg/trace"
)

var (
	_ board.TaskStore = (*HTTPClient)(nil)
	_ board.NoteStore = (*HTTPClient)(nil)
)

func newTestClient(t *testing.T, server *httptest.Server, breaker circuitbreaker.Config) *HTTPClient {
	return NewHTTPClient(Options{
		BaseURL: server.URL + "/",
		Token:   "secret",
		Breaker: breaker,
		Logger:  zaptest.NewLogger(t),
	}, server.Client())
}

func TestListTasksSendsAuthAndTrace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/tasks/u1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get(trace.HeaderName) != "trace-123" {
			t.Errorf("expected trace id to be forwarded, got %q", r.Header.Get(trace.HeaderName))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"T1","title":"a","description":"b","priority":"High","progress":20,"assignedTo":"u1"}]`))
	}))
	defer server.Close()

	client := newTestClient(t, server, circuitbreaker.Config{})
	ctx := trace.WithContext(context.Background(), "trace-123")
	tasks, err := client.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "T1" || tasks[0].Priority != model.PriorityHigh {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
}

func TestListTasksEmptyIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer server.Close()

	tasks, err := newTestClient(t, server, circuitbreaker.Config{}).ListTasks(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", tasks)
	}
}

func TestUpdateTaskSendsOnlyPatchFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/tasks/T1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(body) != 1 || body["progress"] != float64(55) {
			t.Errorf("expected only progress in body, got %v", body)
		}
		_, _ = w.Write([]byte(`{"id":"T1","title":"a","description":"b","priority":"Medium","progress":55,"status":"incomplete","assignedTo":"u1"}`))
	}))
	defer server.Close()

	got, err := newTestClient(t, server, circuitbreaker.Config{}).UpdateTask(context.Background(), "T1", model.TaskPatch{Progress: model.Ptr(55)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Progress != 55 || got.Status != model.StatusIncomplete {
		t.Fatalf("unexpected task %+v", got)
	}
}

func TestUpdateMissingTaskIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"task not found"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server, circuitbreaker.Config{}).UpdateTask(context.Background(), "gone", model.TaskPatch{Title: model.Ptr("x")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if err := newTestClient(t, server, circuitbreaker.Config{}).DeleteTask(context.Background(), "T1"); err != nil {
		t.Fatalf("expected delete of a missing task to succeed, got %v", err)
	}
}

func TestServerErrorIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"down"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server, circuitbreaker.Config{}).CreateTask(context.Background(), model.Task{Title: "a"})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusServiceUnavailable || httpErr.Message != "down" {
		t.Fatalf("expected HTTPError 503, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected exactly one attempt, got %d", atomic.LoadInt32(&calls))
	}
}

func TestBreakerOpensAndFailsFast(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server, circuitbreaker.Config{FailureThreshold: 2, Timeout: time.Minute})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := client.ListTasks(ctx, "u1"); err == nil {
			t.Fatalf("expected failure")
		}
	}
	if client.BreakerState() != circuitbreaker.StateOpen {
		t.Fatalf("expected breaker open, got %s", client.BreakerState())
	}
	if _, err := client.ListTasks(ctx, "u1"); !errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		t.Fatalf("expected fail fast, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected open breaker to skip the request, got %d calls", atomic.LoadInt32(&calls))
	}
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server, circuitbreaker.Config{FailureThreshold: 1})
	for i := 0; i < 3; i++ {
		_, _ = client.UpdateTask(context.Background(), "x", model.TaskPatch{Title: model.Ptr("y")})
	}
	if client.BreakerState() != circuitbreaker.StateClosed {
		t.Fatalf("404s must not open the breaker")
	}
}

func TestNoteRoundTrip(t *testing.T) {
	stored := ""
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notes/u1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method == http.MethodPut {
			var body struct {
				Content string `json:"content"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			stored = body.Content
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"content": stored})
	}))
	defer server.Close()

	client := newTestClient(t, server, circuitbreaker.Config{})
	ctx := context.Background()
	note, err := client.GetNote(ctx, "u1")
	if err != nil || note.Content != "" {
		t.Fatalf("expected empty note, got %+v %v", note, err)
	}
	note, err = client.UpsertNote(ctx, "u1", "remember the milk")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if note.OwnerID != "u1" || note.Content != "remember the milk" {
		t.Fatalf("unexpected note %+v", note)
	}
}
