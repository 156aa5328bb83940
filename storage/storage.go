package storage

import (
	"context"
	"time"

	"investbot/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type IStorage interface {
	User() IUserStorage
	Bot() IBotStorage
	Interaction() IInteractionStorage
	Notification() INotificationStorage
	Settings() ISettingsStorage
	Close()
	GetPool() *pgxpool.Pool
}

type IUserStorage interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByChatID(ctx context.Context, chatID int64) (*models.User, error)
	GetLinked(ctx context.Context) ([]*models.User, error)
	SetChatIdentity(ctx context.Context, id int64, chatID int64, linkStatus string) error
	GetTotalUsers(ctx context.Context) (int, error)
	GetLinkedUsers(ctx context.Context) (int, error)
}

type IBotStorage interface {
	Upsert(ctx context.Context, bot *models.BotIdentity) (*models.BotIdentity, error)
	Get(ctx context.Context, role models.BotRole) (*models.BotIdentity, error)
	GetAll(ctx context.Context) ([]*models.BotIdentity, error)
	SetWebhook(ctx context.Context, role models.BotRole, url, status string) error
	RecordError(ctx context.Context, role models.BotRole, msg string, at time.Time) error
}

type IInteractionStorage interface {
	Create(ctx context.Context, rec *models.InteractionRecord) error
	GetRecent(ctx context.Context, userID int64, limit int) ([]*models.InteractionRecord, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

type INotificationStorage interface {
	GetPreference(ctx context.Context, userID int64, category models.NotificationCategory) (*models.NotificationPreference, error)
	UpsertPreference(ctx context.Context, pref *models.NotificationPreference) error
	CreateRecord(ctx context.Context, rec *models.NotificationRecord) error
	UpdateRecordStatus(ctx context.Context, queueID, status, errMsg string) error
	CountByStatusSince(ctx context.Context, status string, since time.Time) (int, error)
}

type ISettingsStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
