package service

import (
	"context"
	"fmt"
	"time"

	"investbot/pkg/ai"
	"investbot/pkg/apperrors"
	"investbot/pkg/bot"
	"investbot/pkg/logger"
	"investbot/pkg/models"
	"investbot/pkg/notify"
	"investbot/storage"
)

type Dashboard struct {
	Bots  []*models.BotHealth   `json:"bots"`
	Stats models.DashboardStats `json:"stats"`
}

type AdminService interface {
	SetWebhook(ctx context.Context, role models.BotRole, cfg bot.WebhookConfig) error
	RemoveWebhook(ctx context.Context, role models.BotRole, dropPending bool) error
	SetupAllWebhooks(ctx context.Context) map[models.BotRole]string
	GetDashboard(ctx context.Context) (*Dashboard, error)
	GetUserInteractions(ctx context.Context, userID int64, limit int) ([]*models.InteractionRecord, error)
	Broadcast(ctx context.Context, category models.NotificationCategory, data map[string]string, priority models.Priority) (*models.BulkResult, error)
	SendTestMessage(ctx context.Context, role models.BotRole, chatID int64, text string) error
	GetAISettings(ctx context.Context) models.AISettings
	SetAISettings(ctx context.Context, settings models.AISettings) error
	TestAIResponse(ctx context.Context, message string) *models.AIResponse
}

type adminService struct {
	registry  *bot.Registry
	engine    *notify.Engine
	responder *ai.Responder
	stg       storage.IStorage
	log       logger.ILogger
}

func NewAdminService(registry *bot.Registry, engine *notify.Engine, responder *ai.Responder, stg storage.IStorage, log logger.ILogger) AdminService {
	return &adminService{
		registry:  registry,
		engine:    engine,
		responder: responder,
		stg:       stg,
		log:       log,
	}
}

func (s *adminService) SetWebhook(ctx context.Context, role models.BotRole, cfg bot.WebhookConfig) error {
	return s.registry.RegisterWebhook(ctx, role, cfg)
}

func (s *adminService) RemoveWebhook(ctx context.Context, role models.BotRole, dropPending bool) error {
	return s.registry.RemoveWebhook(ctx, role, dropPending)
}

// SetupAllWebhooks registers every configured role and reports per-role
// outcomes as strings for the admin caller.
func (s *adminService) SetupAllWebhooks(ctx context.Context) map[models.BotRole]string {
	results := make(map[models.BotRole]string)
	for role, err := range s.registry.SetupAll(ctx) {
		if err != nil {
			results[role] = err.Error()
		} else {
			results[role] = "ok"
		}
	}
	return results
}

func (s *adminService) GetDashboard(ctx context.Context) (*Dashboard, error) {
	dash := &Dashboard{}

	for _, role := range s.registry.Roles() {
		health, err := s.registry.Health(ctx, role)
		if err != nil {
			s.log.Error("health check failed", logger.String("role", string(role)), logger.Error(err))
			continue
		}
		dash.Bots = append(dash.Bots, health)
	}

	since := time.Now().Add(-24 * time.Hour)
	var err error
	if dash.Stats.TotalUsers, err = s.stg.User().GetTotalUsers(ctx); err != nil {
		return nil, err
	}
	if dash.Stats.LinkedUsers, err = s.stg.User().GetLinkedUsers(ctx); err != nil {
		return nil, err
	}
	if dash.Stats.Interactions24h, err = s.stg.Interaction().CountSince(ctx, since); err != nil {
		return nil, err
	}
	if dash.Stats.NotificationsSent, err = s.stg.Notification().CountByStatusSince(ctx, models.NotificationStatusSent, since); err != nil {
		return nil, err
	}
	if dash.Stats.NotificationsFailed, err = s.stg.Notification().CountByStatusSince(ctx, models.NotificationStatusFailed, since); err != nil {
		return nil, err
	}
	dash.Stats.QueueDepth = s.engine.QueueDepth()

	return dash, nil
}

const (
	defaultInteractionLimit = 20
	maxInteractionLimit     = 100
)

// GetUserInteractions returns a user's most recent interaction records
// for the dashboard drill-down, newest first.
func (s *adminService) GetUserInteractions(ctx context.Context, userID int64, limit int) ([]*models.InteractionRecord, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive", apperrors.ErrValidation)
	}
	if limit <= 0 || limit > maxInteractionLimit {
		limit = defaultInteractionLimit
	}
	if _, err := s.stg.User().GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.stg.Interaction().GetRecent(ctx, userID, limit)
}

// Broadcast queues a notification for every linked user.
func (s *adminService) Broadcast(ctx context.Context, category models.NotificationCategory, data map[string]string, priority models.Priority) (*models.BulkResult, error) {
	users, err := s.stg.User().GetLinked(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	var opts *notify.SendOptions
	if priority != "" {
		opts = &notify.SendOptions{Priority: priority}
	}

	result := s.engine.SendBulk(ctx, ids, category, data, opts)
	s.log.Info("broadcast queued",
		logger.String("category", string(category)),
		logger.Int("sent", result.Sent),
		logger.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *adminService) SendTestMessage(ctx context.Context, role models.BotRole, chatID int64, text string) error {
	if text == "" {
		text = "🧪 Test message from InvestBot."
	}
	return s.registry.Send(ctx, role, chatID, text)
}

func (s *adminService) GetAISettings(ctx context.Context) models.AISettings {
	return s.responder.ResolveSettings(ctx)
}

func (s *adminService) SetAISettings(ctx context.Context, settings models.AISettings) error {
	return s.responder.SaveSettings(ctx, settings)
}

func (s *adminService) TestAIResponse(ctx context.Context, message string) *models.AIResponse {
	return s.responder.GenerateResponse(ctx, message, nil, 0)
}
