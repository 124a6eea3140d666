package delivery

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sbpremium/gifts-backend/pkg/config"
	"github.com/sbpremium/gifts-backend/pkg/enums"
)

const embedColor = 0xF1C40F

// WebhookNotifier posts a chat embed to a Discord-style webhook.
type WebhookNotifier struct {
	url      string
	username string
	client   *http.Client
}

// NewWebhookNotifier returns nil when no webhook URL is configured.
func NewWebhookNotifier(cfg config.WebhookConfig, client *http.Client) *WebhookNotifier {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil
	}
	return &WebhookNotifier{url: cfg.URL, username: cfg.Username, client: defaultHTTPClient(client)}
}

type webhookPayload struct {
	Username string         `json:"username,omitempty"`
	Embeds   []webhookEmbed `json:"embeds"`
}

type webhookEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp"`
	Fields      []webhookField `json:"fields,omitempty"`
}

type webhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func (w *WebhookNotifier) Channel() enums.DeliveryChannel {
	return enums.DeliveryChannelWebhook
}

func (w *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	embed := webhookEmbed{
		Title:       embedTitle(event),
		Description: event.Summary(),
		Color:       embedColor,
		Timestamp:   event.OccurredAt.UTC().Format(time.RFC3339),
	}
	if event.Duration != "" {
		embed.Fields = append(embed.Fields, webhookField{Name: "Duration", Value: string(event.Duration), Inline: true})
	}
	if event.Code != "" {
		embed.Fields = append(embed.Fields, webhookField{Name: "Code", Value: event.Code, Inline: true})
	}
	return postJSON(ctx, w.client, w.url, webhookPayload{Username: w.username, Embeds: []webhookEmbed{embed}}, nil)
}

func embedTitle(event Event) string {
	if event.Title != "" {
		return event.Title
	}
	return strings.ReplaceAll(string(event.Type), "_", " ")
}
