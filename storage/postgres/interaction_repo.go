package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"investbot/pkg/logger"
	"investbot/pkg/models"
	"investbot/storage"
)

type interactionRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewInteractionRepo(db *pgxpool.Pool, log logger.ILogger) storage.IInteractionStorage {
	return &interactionRepo{db: db, log: log}
}

func (r *interactionRepo) Create(ctx context.Context, rec *models.InteractionRecord) error {
	meta, _ := json.Marshal(rec.Metadata)
	query := `
		INSERT INTO interactions (user_id, chat_id, kind, content, response, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		rec.UserID, rec.ChatID, rec.Kind, rec.Content, rec.Response, meta,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		r.log.Error("failed to create interaction", logger.Error(err))
		return err
	}
	return nil
}

func (r *interactionRepo) GetRecent(ctx context.Context, userID int64, limit int) ([]*models.InteractionRecord, error) {
	query := `
		SELECT id, user_id, chat_id, kind, content, response, metadata, created_at
		FROM interactions WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.InteractionRecord
	for rows.Next() {
		var rec models.InteractionRecord
		var meta []byte
		err := rows.Scan(&rec.ID, &rec.UserID, &rec.ChatID, &rec.Kind, &rec.Content, &rec.Response, &meta, &rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &rec.Metadata)
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

func (r *interactionRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT count(*) FROM interactions WHERE created_at >= $1", since).Scan(&count)
	return count, err
}
