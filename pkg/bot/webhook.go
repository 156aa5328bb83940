package bot

import (
	"context"
	"fmt"
	"strings"

	"investbot/pkg/apperrors"
	"investbot/pkg/logger"
	"investbot/pkg/models"
)

// WebhookConfig describes one role's externally reachable callback.
type WebhookConfig struct {
	URL            string   `json:"url"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// RegisterWebhook installs the callback for a role on the bot platform
// and persists the association. setWebhook replaces any previous hook, so
// at most one webhook stays active per role.
func (r *Registry) RegisterWebhook(ctx context.Context, role models.BotRole, cfg WebhookConfig) error {
	id, err := r.Get(role)
	if err != nil {
		return err
	}

	url := cfg.URL
	if url == "" {
		if r.baseURL == "" {
			return fmt.Errorf("%w: no webhook url and no base url configured", apperrors.ErrValidation)
		}
		url = strings.TrimRight(r.baseURL, "/") + "/webhook/" + string(role)
	}

	allowed := cfg.AllowedUpdates
	if len(allowed) == 0 {
		_, _, allowed = id.webhookState()
	}

	params := map[string]interface{}{
		"url":             url,
		"allowed_updates": allowed,
	}
	if id.Secret != "" {
		params["secret_token"] = id.Secret
	}

	if _, err := r.raw(ctx, id, "setWebhook", params); err != nil {
		return err
	}

	id.setWebhookState(url, models.BotStatusActive, allowed)

	if r.repo != nil {
		if err := r.repo.SetWebhook(ctx, role, url, models.BotStatusActive); err != nil {
			r.log.Error("failed to persist webhook", logger.Error(err))
		}
	}

	r.log.Info("webhook registered",
		logger.String("role", string(role)),
		logger.String("url", url),
	)
	return nil
}

// RemoveWebhook tears the callback down. dropPending asks the platform to
// discard queued updates; it is a platform-side flag, nothing is
// cancelled locally.
func (r *Registry) RemoveWebhook(ctx context.Context, role models.BotRole, dropPending bool) error {
	id, err := r.Get(role)
	if err != nil {
		return err
	}
	url, status, _ := id.webhookState()
	if status != models.BotStatusActive || url == "" {
		return fmt.Errorf("%w: no active webhook for role %s", apperrors.ErrState, role)
	}

	params := map[string]interface{}{
		"drop_pending_updates": dropPending,
	}
	if _, err := r.raw(ctx, id, "deleteWebhook", params); err != nil {
		return err
	}

	id.setWebhookState("", models.BotStatusInactive, nil)

	if r.repo != nil {
		if err := r.repo.SetWebhook(ctx, role, "", models.BotStatusInactive); err != nil {
			r.log.Error("failed to persist webhook removal", logger.Error(err))
		}
	}

	r.log.Info("webhook removed", logger.String("role", string(role)), logger.Bool("drop_pending", dropPending))
	return nil
}

// SetupAll registers webhooks for every configured role, collecting
// per-role failures instead of stopping at the first one.
func (r *Registry) SetupAll(ctx context.Context) map[models.BotRole]error {
	results := make(map[models.BotRole]error)
	for _, role := range r.Roles() {
		results[role] = r.RegisterWebhook(ctx, role, WebhookConfig{})
	}
	return results
}
