package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"investbot/pkg/apperrors"
	"investbot/pkg/logger"
	"investbot/pkg/models"
	"investbot/storage"
)

type userRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewUserRepo(db *pgxpool.Pool, log logger.ILogger) storage.IUserStorage {
	return &userRepo{db: db, log: log}
}

const userColumns = "id, email, full_name, chat_id, link_status, status, created_at, updated_at"

func (r *userRepo) scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.FullName, &user.ChatID, &user.LinkStatus, &user.Status, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	user, err := r.scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil && err != apperrors.ErrNotFound {
		r.log.Error("failed to get user by id", logger.Error(err))
	}
	return user, err
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE lower(email) = $1", userColumns)
	user, err := r.scanUser(r.db.QueryRow(ctx, query, strings.ToLower(email)))
	if err != nil && err != apperrors.ErrNotFound {
		r.log.Error("failed to get user by email", logger.Error(err))
	}
	return user, err
}

func (r *userRepo) GetByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE chat_id = $1", userColumns)
	user, err := r.scanUser(r.db.QueryRow(ctx, query, chatID))
	if err != nil && err != apperrors.ErrNotFound {
		r.log.Error("failed to get user by chat id", logger.Error(err))
	}
	return user, err
}

func (r *userRepo) GetLinked(ctx context.Context) ([]*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE link_status = 'linked' AND chat_id IS NOT NULL", userColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		err := rows.Scan(
			&u.ID, &u.Email, &u.FullName, &u.ChatID, &u.LinkStatus, &u.Status, &u.CreatedAt, &u.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (r *userRepo) SetChatIdentity(ctx context.Context, id int64, chatID int64, linkStatus string) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE users SET chat_id=$1, link_status=$2, updated_at=NOW() WHERE id=$3",
		chatID, linkStatus, id,
	)
	if err != nil {
		r.log.Error("failed to set chat identity", logger.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *userRepo) GetTotalUsers(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&count)
	return count, err
}

func (r *userRepo) GetLinkedUsers(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT count(*) FROM users WHERE link_status = 'linked'").Scan(&count)
	return count, err
}
