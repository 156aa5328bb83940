package models

import "time"

type NotificationCategory string

const (
	CategoryTradingSignals   NotificationCategory = "trading_signals"
	CategoryPriceAlerts      NotificationCategory = "price_alerts"
	CategoryPortfolioUpdates NotificationCategory = "portfolio_updates"
	CategorySystemAlerts     NotificationCategory = "system_alerts"
	CategoryNews             NotificationCategory = "news"
	CategoryEducational      NotificationCategory = "educational"
)

var AllCategories = []NotificationCategory{
	CategoryTradingSignals,
	CategoryPriceAlerts,
	CategoryPortfolioUpdates,
	CategorySystemAlerts,
	CategoryNews,
	CategoryEducational,
}

type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities for queue sorting; lower rank dispatches first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

type Frequency string

const (
	FrequencyInstant Frequency = "instant"
	FrequencyHourly  Frequency = "hourly"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
)

type Channel string

const (
	ChannelTelegram Channel = "telegram"
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
)

type PreferenceFilters struct {
	MinAmount *float64 `json:"min_amount,omitempty"`
	MaxAmount *float64 `json:"max_amount,omitempty"`
	Assets    []string `json:"assets,omitempty"`
	RiskLevel *string  `json:"risk_level,omitempty"`
}

type NotificationPreference struct {
	UserID    int64                `json:"user_id"`
	Category  NotificationCategory `json:"category"`
	Enabled   bool                 `json:"enabled"`
	Frequency Frequency            `json:"frequency"`
	Channels  []Channel            `json:"channels"`
	Filters   PreferenceFilters    `json:"filters"`
	UpdatedAt time.Time            `json:"updated_at"`
}

type NotificationTemplate struct {
	Category        NotificationCategory `json:"category"`
	Title           string               `json:"title"`
	Body            string               `json:"body"`
	Variables       []string             `json:"variables"`
	DefaultPriority Priority             `json:"default_priority"`
}

type QueuedNotification struct {
	ID          string               `json:"id"`
	UserID      int64                `json:"user_id"`
	Category    NotificationCategory `json:"category"`
	Title       string               `json:"title"`
	Message     string               `json:"message"`
	Priority    Priority             `json:"priority"`
	ScheduledAt time.Time            `json:"scheduled_at"`
	Channels    []Channel            `json:"channels"`
	RetryCount  int                  `json:"retry_count"`
	Metadata    map[string]string    `json:"metadata"`
	CreatedAt   time.Time            `json:"created_at"`
}

const (
	NotificationStatusQueued   = "queued"
	NotificationStatusSent     = "sent"
	NotificationStatusFailed   = "failed"
	NotificationStatusFiltered = "filtered"
)

// NotificationRecord is the per-notification audit row.
type NotificationRecord struct {
	ID        int64                `json:"id"`
	QueueID   string               `json:"queue_id"`
	UserID    int64                `json:"user_id"`
	Category  NotificationCategory `json:"category"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Priority  Priority             `json:"priority"`
	Status    string               `json:"status"`
	Error     string               `json:"error"`
	CreatedAt time.Time            `json:"created_at"`
}

type BulkResult struct {
	Sent   int      `json:"sent"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors"`
}
