package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"investbot/pkg/apperrors"
	"investbot/pkg/logger"
	"investbot/pkg/models"
	"investbot/storage"
)

type botRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewBotRepo(db *pgxpool.Pool, log logger.ILogger) storage.IBotStorage {
	return &botRepo{db: db, log: log}
}

const botColumns = "id, role, token, secret, webhook_url, allowed_updates, status, last_error_at, last_error, created_at, updated_at"

func (r *botRepo) Upsert(ctx context.Context, bot *models.BotIdentity) (*models.BotIdentity, error) {
	query := `
		INSERT INTO bot_identities (role, token, secret, webhook_url, allowed_updates, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (role) DO UPDATE
		SET token = EXCLUDED.token,
			secret = EXCLUDED.secret,
			webhook_url = EXCLUDED.webhook_url,
			allowed_updates = EXCLUDED.allowed_updates,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING ` + botColumns
	var out models.BotIdentity
	err := r.db.QueryRow(ctx, query,
		bot.Role, bot.Token, bot.Secret, bot.WebhookURL, bot.AllowedUpdates, bot.Status,
	).Scan(
		&out.ID, &out.Role, &out.Token, &out.Secret, &out.WebhookURL, &out.AllowedUpdates,
		&out.Status, &out.LastErrorAt, &out.LastError, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		r.log.Error("failed to upsert bot identity", logger.Error(err))
		return nil, err
	}
	return &out, nil
}

func (r *botRepo) Get(ctx context.Context, role models.BotRole) (*models.BotIdentity, error) {
	var bot models.BotIdentity
	query := "SELECT " + botColumns + " FROM bot_identities WHERE role = $1"
	err := r.db.QueryRow(ctx, query, role).Scan(
		&bot.ID, &bot.Role, &bot.Token, &bot.Secret, &bot.WebhookURL, &bot.AllowedUpdates,
		&bot.Status, &bot.LastErrorAt, &bot.LastError, &bot.CreatedAt, &bot.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		r.log.Error("failed to get bot identity", logger.Error(err))
		return nil, err
	}
	return &bot, nil
}

func (r *botRepo) GetAll(ctx context.Context) ([]*models.BotIdentity, error) {
	rows, err := r.db.Query(ctx, "SELECT "+botColumns+" FROM bot_identities ORDER BY role")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bots []*models.BotIdentity
	for rows.Next() {
		var b models.BotIdentity
		err := rows.Scan(
			&b.ID, &b.Role, &b.Token, &b.Secret, &b.WebhookURL, &b.AllowedUpdates,
			&b.Status, &b.LastErrorAt, &b.LastError, &b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		bots = append(bots, &b)
	}
	return bots, rows.Err()
}

func (r *botRepo) SetWebhook(ctx context.Context, role models.BotRole, url, status string) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE bot_identities SET webhook_url=$1, status=$2, updated_at=NOW() WHERE role=$3",
		url, status, role,
	)
	if err != nil {
		r.log.Error("failed to update webhook", logger.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *botRepo) RecordError(ctx context.Context, role models.BotRole, msg string, at time.Time) error {
	_, err := r.db.Exec(ctx,
		"UPDATE bot_identities SET last_error=$1, last_error_at=$2 WHERE role=$3",
		msg, at, role,
	)
	return err
}
