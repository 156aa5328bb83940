package bot

import (
	"context"
	"encoding/json"
	"time"

	"investbot/pkg/logger"
	"investbot/pkg/models"
)

const (
	backlogThreshold  = 100
	recentErrorWindow = time.Hour
)

type webhookInfo struct {
	URL                string `json:"url"`
	PendingUpdateCount int    `json:"pending_update_count"`
	LastErrorMessage   string `json:"last_error_message"`
}

// Health reports whether a role's webhook looks usable: a configured URL,
// a backlog under the threshold and no platform error in the last hour.
func (r *Registry) Health(ctx context.Context, role models.BotRole) (*models.BotHealth, error) {
	id, err := r.Get(role)
	if err != nil {
		return nil, err
	}

	url, _, _ := id.webhookState()
	h := &models.BotHealth{
		Role:       role,
		Healthy:    true,
		WebhookURL: url,
	}

	result, err := r.raw(ctx, id, "getWebhookInfo", nil)
	if err != nil {
		h.Healthy = false
		h.Issues = append(h.Issues, "platform unreachable: "+err.Error())
	} else {
		var info webhookInfo
		if err := json.Unmarshal(result, &info); err == nil {
			h.WebhookURL = info.URL
			h.PendingUpdates = info.PendingUpdateCount
			if info.PendingUpdateCount > backlogThreshold {
				h.Healthy = false
				h.Issues = append(h.Issues, "update backlog exceeds threshold")
			}
			if info.LastErrorMessage != "" {
				h.Issues = append(h.Issues, "platform reported: "+info.LastErrorMessage)
			}
		}
	}

	if h.WebhookURL == "" {
		h.Healthy = false
		h.Issues = append(h.Issues, "no webhook url configured")
	}
	if msg, ok := id.errorWithin(recentErrorWindow, r.now()); ok {
		h.Healthy = false
		h.Issues = append(h.Issues, "recent error: "+msg)
	}

	r.log.Debug("bot health checked",
		logger.String("role", string(role)),
		logger.Bool("healthy", h.Healthy),
	)
	return h, nil
}
