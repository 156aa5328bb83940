package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"investbot/pkg/apperrors"
	"investbot/pkg/logger"
	"investbot/pkg/models"
	"investbot/storage"
)

type notificationRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewNotificationRepo(db *pgxpool.Pool, log logger.ILogger) storage.INotificationStorage {
	return &notificationRepo{db: db, log: log}
}

func (r *notificationRepo) GetPreference(ctx context.Context, userID int64, category models.NotificationCategory) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	var channels []string
	var filters []byte
	query := `
		SELECT user_id, category, enabled, frequency, channels, filters, updated_at
		FROM notification_preferences WHERE user_id = $1 AND category = $2
	`
	err := r.db.QueryRow(ctx, query, userID, category).Scan(
		&pref.UserID, &pref.Category, &pref.Enabled, &pref.Frequency, &channels, &filters, &pref.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		r.log.Error("failed to get notification preference", logger.Error(err))
		return nil, err
	}
	for _, ch := range channels {
		pref.Channels = append(pref.Channels, models.Channel(ch))
	}
	if len(filters) > 0 {
		_ = json.Unmarshal(filters, &pref.Filters)
	}
	return &pref, nil
}

func (r *notificationRepo) UpsertPreference(ctx context.Context, pref *models.NotificationPreference) error {
	channels := make([]string, 0, len(pref.Channels))
	for _, ch := range pref.Channels {
		channels = append(channels, string(ch))
	}
	filters, _ := json.Marshal(pref.Filters)
	query := `
		INSERT INTO notification_preferences (user_id, category, enabled, frequency, channels, filters)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, category) DO UPDATE
		SET enabled = EXCLUDED.enabled,
			frequency = EXCLUDED.frequency,
			channels = EXCLUDED.channels,
			filters = EXCLUDED.filters,
			updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, pref.UserID, pref.Category, pref.Enabled, pref.Frequency, channels, filters)
	if err != nil {
		r.log.Error("failed to upsert notification preference", logger.Error(err))
	}
	return err
}

func (r *notificationRepo) CreateRecord(ctx context.Context, rec *models.NotificationRecord) error {
	query := `
		INSERT INTO notification_log (queue_id, user_id, category, title, message, priority, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		rec.QueueID, rec.UserID, rec.Category, rec.Title, rec.Message, rec.Priority, rec.Status, rec.Error,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		r.log.Error("failed to create notification record", logger.Error(err))
		return err
	}
	return nil
}

func (r *notificationRepo) UpdateRecordStatus(ctx context.Context, queueID, status, errMsg string) error {
	_, err := r.db.Exec(ctx,
		"UPDATE notification_log SET status=$1, error=$2 WHERE queue_id=$3",
		status, errMsg, queueID,
	)
	if err != nil {
		r.log.Error("failed to update notification status", logger.Error(err))
	}
	return err
}

func (r *notificationRepo) CountByStatusSince(ctx context.Context, status string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT count(*) FROM notification_log WHERE status = $1 AND created_at >= $2",
		status, since,
	).Scan(&count)
	return count, err
}
