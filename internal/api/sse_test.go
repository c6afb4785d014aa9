package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fenestra-io/configurator/internal/events"
)

// mockFlusher wraps httptest.ResponseRecorder to satisfy http.Flusher.
type mockFlusher struct{}

func (mockFlusher) Flush() {}

func parseSSEPayload(t *testing.T, body string) (eventType string, payload map[string]interface{}) {
	t.Helper()
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "event: ") {
			eventType = strings.TrimPrefix(line, "event: ")
		}
		if strings.HasPrefix(line, "data: ") {
			raw := strings.TrimPrefix(line, "data: ")
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				t.Fatalf("failed to unmarshal SSE data: %v", err)
			}
		}
	}
	return
}

func TestSendSSEEvent_OptionSelected(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	event := events.NewOptionSelectedEvent("s1", "fenestra~glazing", "triple")

	srv.sendSSEEvent(rec, mockFlusher{}, event.EventType(), event)

	eventType, payload := parseSSEPayload(t, rec.Body.String())
	if eventType != "option_selected" {
		t.Errorf("event type = %q, want option_selected", eventType)
	}
	if payload["code"] != "fenestra~glazing" {
		t.Errorf("code = %v", payload["code"])
	}
	if payload["value"] != "triple" {
		t.Errorf("value = %v", payload["value"])
	}
	if payload["session_id"] != "s1" {
		t.Errorf("session_id = %v", payload["session_id"])
	}
	if payload["timestamp"] == nil {
		t.Error("timestamp missing")
	}
}

func TestSendSSEEvent_VisualizationRefresh(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	event := events.NewVisualizationRefreshEvent("s1", "option_applied")

	srv.sendSSEEvent(rec, mockFlusher{}, event.EventType(), event)

	eventType, payload := parseSSEPayload(t, rec.Body.String())
	if eventType != "visualization_refresh" {
		t.Errorf("event type = %q", eventType)
	}
	if payload["reason"] != "option_applied" {
		t.Errorf("reason = %v", payload["reason"])
	}
}

// sseRecorder is a goroutine-safe ResponseWriter for streaming handlers.
type sseRecorder struct {
	mu     sync.Mutex
	header http.Header
	body   strings.Builder
}

func newSSERecorder() *sseRecorder {
	return &sseRecorder{header: make(http.Header)}
}

func (r *sseRecorder) Header() http.Header { return r.header }
func (r *sseRecorder) WriteHeader(int)     {}
func (r *sseRecorder) Flush()              {}

func (r *sseRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Write(p)
}

func (r *sseRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

func waitForStream(t *testing.T, rec *sseRecorder, substr string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !strings.Contains(rec.String(), substr) {
		select {
		case <-deadline:
			t.Fatalf("stream never contained %q:\n%s", substr, rec.String())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSSE_SessionFilter(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?session=s1", nil).WithContext(ctx)
	rec := newSSERecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Handler().ServeHTTP(rec, req)
	}()

	waitForStream(t, rec, "connected")

	srv.bus.Publish(events.NewOptionSelectedEvent("other", "fenestra~glazing", "double"))
	srv.bus.Publish(events.NewOptionSelectedEvent("s1", "fenestra~glazing", "triple"))

	waitForStream(t, rec, `"value":"triple"`)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return on disconnect")
	}

	if strings.Contains(rec.String(), `"session_id":"other"`) {
		t.Errorf("session filter leaked foreign event:\n%s", rec.String())
	}
}

func TestSSE_TypeFilter(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?types=definition_updated", nil).WithContext(ctx)
	rec := newSSERecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Handler().ServeHTTP(rec, req)
	}()

	waitForStream(t, rec, "connected")

	srv.bus.Publish(events.NewOptionSelectedEvent("s1", "code", "v"))
	srv.bus.Publish(events.NewDefinitionUpdatedEvent("s1", "Tree", 4))

	waitForStream(t, rec, "definition_updated")

	cancel()
	<-done

	if strings.Contains(rec.String(), "option_selected") {
		t.Error("type filter leaked option_selected")
	}
}
