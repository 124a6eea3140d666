package delivery

import (
	"context"
	"net/http"
	"strings"

	"github.com/sbpremium/gifts-backend/pkg/config"
	"github.com/sbpremium/gifts-backend/pkg/enums"
)

// CompanionBotNotifier forwards raw events to the companion bot's HTTP endpoint.
type CompanionBotNotifier struct {
	url    string
	secret string
	client *http.Client
}

// NewCompanionBotNotifier returns nil when no endpoint is configured.
func NewCompanionBotNotifier(cfg config.CompanionBotConfig, client *http.Client) *CompanionBotNotifier {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil
	}
	return &CompanionBotNotifier{url: cfg.URL, secret: cfg.Secret, client: defaultHTTPClient(client)}
}

func (c *CompanionBotNotifier) Channel() enums.DeliveryChannel {
	return enums.DeliveryChannelCompanionBot
}

func (c *CompanionBotNotifier) Notify(ctx context.Context, event Event) error {
	headers := map[string]string{}
	if c.secret != "" {
		headers["Authorization"] = "Bearer " + c.secret
	}
	return postJSON(ctx, c.client, c.url, event, headers)
}
