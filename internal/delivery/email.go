package delivery

import (
	"context"
	"net/http"
	"strings"

	"github.com/sbpremium/gifts-backend/pkg/config"
	"github.com/sbpremium/gifts-backend/pkg/enums"
)

// EmailNotifier sends a plain-text mail through the SendGrid v3 API.
type EmailNotifier struct {
	endpoint string
	apiKey   string
	from     string
	to       string
	client   *http.Client
}

// NewEmailNotifier returns nil unless key, sender and recipient are all set.
func NewEmailNotifier(cfg config.SendgridConfig, client *http.Client) *EmailNotifier {
	if cfg.APIKey == "" || cfg.DefaultFrom == "" || cfg.NotifyTo == "" {
		return nil
	}
	return &EmailNotifier{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/v3/mail/send",
		apiKey:   cfg.APIKey,
		from:     cfg.DefaultFrom,
		to:       cfg.NotifyTo,
		client:   defaultHTTPClient(client),
	}
}

type mailAddress struct {
	Email string `json:"email"`
}

type mailPersonalization struct {
	To []mailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailRequest struct {
	Personalizations []mailPersonalization `json:"personalizations"`
	From             mailAddress           `json:"from"`
	Subject          string                `json:"subject"`
	Content          []mailContent         `json:"content"`
}

func (e *EmailNotifier) Channel() enums.DeliveryChannel {
	return enums.DeliveryChannelEmail
}

func (e *EmailNotifier) Notify(ctx context.Context, event Event) error {
	body := mailRequest{
		Personalizations: []mailPersonalization{{To: []mailAddress{{Email: e.to}}}},
		From:             mailAddress{Email: e.from},
		Subject:          "[SB Premium] " + embedTitle(event),
		Content:          []mailContent{{Type: "text/plain", Value: event.Summary()}},
	}
	return postJSON(ctx, e.client, e.endpoint, body, map[string]string{"Authorization": "Bearer " + e.apiKey})
}
