package models

import (
	"fmt"
	"time"
)

// BotRole is the closed set of bot identities the platform runs.
type BotRole string

const (
	RoleSupport       BotRole = "support"
	RoleOTP           BotRole = "otp"
	RoleAlerts        BotRole = "alerts"
	RoleCommunication BotRole = "communication"
)

var AllBotRoles = []BotRole{RoleSupport, RoleOTP, RoleAlerts, RoleCommunication}

func ParseBotRole(s string) (BotRole, error) {
	switch BotRole(s) {
	case RoleSupport, RoleOTP, RoleAlerts, RoleCommunication:
		return BotRole(s), nil
	}
	return "", fmt.Errorf("unknown bot role %q", s)
}

const (
	BotStatusActive   = "active"
	BotStatusInactive = "inactive"
)

type BotIdentity struct {
	ID             int64      `json:"id"`
	Role           BotRole    `json:"role"`
	Token          string     `json:"-"`
	Secret         string     `json:"-"`
	WebhookURL     string     `json:"webhook_url"`
	AllowedUpdates []string   `json:"allowed_updates"`
	Status         string     `json:"status"`
	LastErrorAt    *time.Time `json:"last_error_at"`
	LastError      string     `json:"last_error"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type BotHealth struct {
	Role           BotRole  `json:"role"`
	Healthy        bool     `json:"healthy"`
	WebhookURL     string   `json:"webhook_url"`
	PendingUpdates int      `json:"pending_updates"`
	Issues         []string `json:"issues"`
}
