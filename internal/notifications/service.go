package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nrw/internal/config"
)

const userAgent = "nrw/0.1"

// Event identifies the kind of notification being published.
type Event string

const (
	EventRunCompleted Event = "run_completed"
	EventRunFailed    Event = "run_failed"
	EventTest         Event = "test"
)

// RunSummary carries the figures reported for a finished run.
type RunSummary struct {
	RunID      string
	Resolved   int
	Unresolved int
	Failed     int
	Changed    int
	DryRun     bool
	Duration   time.Duration
	Err        error
}

// Service publishes notifications.
type Service interface {
	Publish(ctx context.Context, event Event, summary RunSummary) error
}

// NewService builds an ntfy-backed notifier, or a no-op when no topic is
// configured. A nil transport uses http.DefaultTransport.
func NewService(cfg *config.Config, transport http.RoundTripper) Service {
	if cfg == nil || strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:     strings.TrimSpace(cfg.Notifications.NtfyTopic),
		client:       &http.Client{Timeout: timeout, Transport: transport},
		onlyOnChange: cfg.Notifications.OnlyOnChange,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	onlyOnChange bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, summary RunSummary) error {
	data, ok := n.format(event, summary)
	if !ok {
		return nil
	}
	return n.send(ctx, data)
}

func (n *ntfyService) format(event Event, s RunSummary) (payload, bool) {
	switch event {
	case EventRunCompleted:
		if n.onlyOnChange && s.Changed == 0 && s.Failed == 0 {
			return payload{}, false
		}
		title := "nrw - Run Complete"
		tags := []string{"nrw", "run", "completed"}
		if s.Failed > 0 {
			title = "nrw - Run Complete (with failures)"
			tags = append(tags, "warning")
		}
		message := fmt.Sprintf("%d resolved, %d unresolved, %d failed; %d records updated in %s",
			s.Resolved, s.Unresolved, s.Failed, s.Changed, formatDuration(s.Duration))
		if s.DryRun {
			message += " (dry run)"
		}
		return payload{title: title, message: message, tags: tags}, true
	case EventRunFailed:
		var b strings.Builder
		b.WriteString("Run ")
		b.WriteString(shortID(s.RunID))
		b.WriteString(" failed: ")
		if s.Err != nil {
			b.WriteString(strings.TrimSpace(s.Err.Error()))
		} else {
			b.WriteString("unknown error")
		}
		return payload{
			title:    "nrw - Run Failed",
			message:  b.String(),
			tags:     []string{"nrw", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return payload{
			title:    "nrw - Test",
			message:  "Notification system test",
			tags:     []string{"nrw", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, RunSummary) error { return nil }
