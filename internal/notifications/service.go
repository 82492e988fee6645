package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"houndarr/internal/config"
)

const userAgent = "Houndarr/0.1.0"

// Service defines the notification surface exposed to the hunting core.
type Service interface {
	NotifyHuntCompleted(ctx context.Context, instance string, missing, upgrades int) error
	NotifyStrikeRemoval(ctx context.Context, instance, downloadTitle string, strikes int) error
	NotifyAuthFailure(ctx context.Context, instance string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.NtfyRequestTimeout) * time.Second
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

func (n *ntfyService) NotifyHuntCompleted(ctx context.Context, instance string, missing, upgrades int) error {
	if missing == 0 && upgrades == 0 {
		return nil
	}
	data := payload{
		title:   "Houndarr - Hunt Completed",
		message: fmt.Sprintf("%s: searched %d missing, %d upgrade items", instance, missing, upgrades),
		tags:    []string{"houndarr", "hunt"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStrikeRemoval(ctx context.Context, instance, downloadTitle string, strikes int) error {
	data := payload{
		title:   "Houndarr - Stalled Download Removed",
		message: fmt.Sprintf("%s: removed %q after %d strikes", instance, downloadTitle, strikes),
		tags:    []string{"houndarr", "swaparr"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAuthFailure(ctx context.Context, instance string) error {
	data := payload{
		title:    "Houndarr - Authentication Failure",
		message:  fmt.Sprintf("%s: API key rejected; hunting suspended until configuration changes", instance),
		tags:     []string{"houndarr", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:   "Houndarr - Test",
		message: "Notifications are configured correctly",
		tags:    []string{"houndarr"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notification endpoint returned %d", resp.StatusCode)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyHuntCompleted(context.Context, string, int, int) error { return nil }
func (noopService) NotifyStrikeRemoval(context.Context, string, string, int) error {
	return nil
}
func (noopService) NotifyAuthFailure(context.Context, string) error { return nil }
func (noopService) TestNotification(context.Context) error          { return nil }

// Noop returns a Service that drops every notification.
func Noop() Service { return noopService{} }
