package models

import "time"

const (
	LinkStatusUnlinked = "unlinked"
	LinkStatusPending  = "pending"
	LinkStatusLinked   = "linked"
)

type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	ChatID     *int64    `json:"chat_id"`
	LinkStatus string    `json:"link_status"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
