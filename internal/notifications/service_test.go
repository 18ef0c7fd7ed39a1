package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nrw/internal/config"
	"nrw/internal/notifications"
)

type captured struct {
	title, tags, priority, body string
}

type recorder struct {
	mu   sync.Mutex
	reqs []captured
}

func (r *recorder) all() []captured {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]captured(nil), r.reqs...)
}

func newServer(t *testing.T, status int) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.reqs = append(rec.reqs, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func serviceFor(srv *httptest.Server, onlyOnChange bool) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL + "/nrw"
	cfg.Notifications.OnlyOnChange = onlyOnChange
	return notifications.NewService(&cfg, nil)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg, nil)
	if err := svc.Publish(context.Background(), notifications.EventRunCompleted, notifications.RunSummary{}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		summary        notifications.RunSummary
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "run completed",
			event:         notifications.EventRunCompleted,
			summary:       notifications.RunSummary{Resolved: 3, Unresolved: 1, Changed: 3, Duration: 42 * time.Second},
			expectTitle:   "nrw - Run Complete",
			expectMessage: "3 resolved, 1 unresolved, 0 failed; 3 records updated in 42s",
			expectTags:    "nrw,run,completed",
		},
		{
			name:          "run completed with failures",
			event:         notifications.EventRunCompleted,
			summary:       notifications.RunSummary{Unresolved: 2, Failed: 2, DryRun: true},
			expectTitle:   "nrw - Run Complete (with failures)",
			expectMessage: "0 resolved, 2 unresolved, 2 failed; 0 records updated in 0s (dry run)",
			expectTags:    "nrw,run,completed,warning",
		},
		{
			name:           "run failed",
			event:          notifications.EventRunFailed,
			summary:        notifications.RunSummary{RunID: "0123456789abcdef", Err: errors.New("rename catalog: disk full")},
			expectTitle:    "nrw - Run Failed",
			expectMessage:  "Run 01234567 failed: rename catalog: disk full",
			expectTags:     "nrw,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "nrw - Test",
			expectMessage:  "Notification system test",
			expectTags:     "nrw,test",
			expectPriority: "low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, got := newServer(t, http.StatusOK)
			if err := serviceFor(srv, false).Publish(context.Background(), tt.event, tt.summary); err != nil {
				t.Fatalf("Publish: %v", err)
			}
			reqs := got.all()
			if len(reqs) != 1 {
				t.Fatalf("expected 1 request, got %d", len(reqs))
			}
			req := reqs[0]
			if req.title != tt.expectTitle {
				t.Fatalf("title = %q, want %q", req.title, tt.expectTitle)
			}
			if req.body != tt.expectMessage {
				t.Fatalf("message = %q, want %q", req.body, tt.expectMessage)
			}
			if req.tags != tt.expectTags {
				t.Fatalf("tags = %q, want %q", req.tags, tt.expectTags)
			}
			if req.priority != tt.expectPriority {
				t.Fatalf("priority = %q, want %q", req.priority, tt.expectPriority)
			}
		})
	}
}

func TestOnlyOnChangeSuppressesQuietRuns(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	svc := serviceFor(srv, true)
	if err := svc.Publish(context.Background(), notifications.EventRunCompleted, notifications.RunSummary{Unresolved: 4}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if n := len(got.all()); n != 0 {
		t.Fatalf("expected quiet run to be suppressed, got %d requests", n)
	}
	if err := svc.Publish(context.Background(), notifications.EventRunCompleted, notifications.RunSummary{Changed: 1}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if n := len(got.all()); n != 1 {
		t.Fatalf("expected changed run to notify, got %d requests", n)
	}
}

func TestPublishReportsServerErrors(t *testing.T) {
	srv, _ := newServer(t, http.StatusForbidden)
	err := serviceFor(srv, false).Publish(context.Background(), notifications.EventTest, notifications.RunSummary{})
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
