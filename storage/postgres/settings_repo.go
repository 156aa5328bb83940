package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"investbot/pkg/apperrors"
	"investbot/pkg/logger"
	"investbot/storage"
)

type settingsRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewSettingsRepo(db *pgxpool.Pool, log logger.ILogger) storage.ISettingsStorage {
	return &settingsRepo{db: db, log: log}
}

func (r *settingsRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRow(ctx, "SELECT value FROM settings WHERE key = $1", key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", apperrors.ErrNotFound
		}
		r.log.Error("failed to get setting", logger.String("key", key), logger.Error(err))
		return "", err
	}
	return value, nil
}

func (r *settingsRepo) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, key, value)
	if err != nil {
		r.log.Error("failed to set setting", logger.String("key", key), logger.Error(err))
	}
	return err
}
