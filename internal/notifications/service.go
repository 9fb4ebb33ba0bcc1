package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"audiosurv/internal/alerts"
	"audiosurv/internal/config"
)

const userAgent = "AudioSurv-Go/0.1.0"

// Service defines the notification surface exposed to the pipeline and CLI.
type Service interface {
	NotifyThreat(ctx context.Context, alert alerts.Alert) error
	NotifyScanFailed(ctx context.Context, filename string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyThreat(ctx context.Context, alert alerts.Alert) error {
	keyword := strings.TrimSpace(alert.KeywordDetected)
	if keyword == "" {
		keyword = "unknown"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s threat: %s", alert.ThreatRating, keyword)
	if summary := strings.TrimSpace(alert.SemanticSummary); summary != "" {
		b.WriteString("\n")
		b.WriteString(summary)
	}
	if len(alert.SlangDetected) > 0 {
		terms := make([]string, 0, len(alert.SlangDetected))
		for _, s := range alert.SlangDetected {
			terms = append(terms, s.Term)
		}
		fmt.Fprintf(&b, "\nSlang: %s", strings.Join(terms, ", "))
	}
	if alert.ID != "" {
		fmt.Fprintf(&b, "\nAlert: %s", alert.ID)
	}

	priority := "default"
	switch alert.ThreatRating {
	case alerts.ThreatHigh:
		priority = "urgent"
	case alerts.ThreatMedium:
		priority = "high"
	}
	data := payload{
		title:    fmt.Sprintf("AudioSurv - %s Threat", alert.ThreatRating),
		message:  b.String(),
		tags:     []string{"audiosurv", "threat", strings.ToLower(string(alert.ThreatRating))},
		priority: priority,
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyScanFailed(ctx context.Context, filename string, err error) error {
	var b strings.Builder
	b.WriteString("Scan failed")
	if filename = strings.TrimSpace(filename); filename != "" {
		b.WriteString(" for ")
		b.WriteString(filename)
	}
	b.WriteString(": ")
	if err != nil {
		b.WriteString(alerts.Message(err))
	} else {
		b.WriteString("unknown")
	}

	data := payload{
		title:    "AudioSurv - Scan Failed",
		message:  b.String(),
		tags:     []string{"audiosurv", "scan", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "AudioSurv - Test",
		message:  "Notification system test",
		tags:     []string{"audiosurv", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

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

type noopService struct{}

func (noopService) NotifyThreat(context.Context, alerts.Alert) error      { return nil }
func (noopService) NotifyScanFailed(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                { return nil }
