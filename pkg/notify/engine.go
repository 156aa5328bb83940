package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"investbot/pkg/apperrors"
	"investbot/pkg/logger"
	"investbot/pkg/models"
	"investbot/storage"
)

const bulkPacing = 100 * time.Millisecond

// Send outcomes. Filtered is a non-error outcome: preferences or filters
// suppressed the notification.
const (
	OutcomeQueued   = "queued"
	OutcomeFiltered = "filtered"
)

// Sender delivers to the chat channel; the registry satisfies this.
type Sender interface {
	Send(ctx context.Context, role models.BotRole, chatID int64, text string, opts ...interface{}) error
}

type SendOptions struct {
	Priority models.Priority
	Channels []models.Channel
}

type Engine struct {
	queue         Queue
	users         storage.IUserStorage
	notifications storage.INotificationStorage
	sender        Sender
	log           logger.ILogger
	now           func() time.Time
	pacing        time.Duration
	inFlight      atomic.Bool
}

func NewEngine(queue Queue, stg storage.IStorage, sender Sender, log logger.ILogger) *Engine {
	return &Engine{
		queue:         queue,
		users:         stg.User(),
		notifications: stg.Notification(),
		sender:        sender,
		log:           log,
		now:           time.Now,
		pacing:        bulkPacing,
	}
}

func defaultPreference(userID int64, category models.NotificationCategory) *models.NotificationPreference {
	return &models.NotificationPreference{
		UserID:    userID,
		Category:  category,
		Enabled:   true,
		Frequency: models.FrequencyInstant,
		Channels:  []models.Channel{models.ChannelTelegram},
	}
}

// GetPreferences returns the six fixed categories, defaulting the ones
// the user never configured.
func (e *Engine) GetPreferences(ctx context.Context, userID int64) ([]*models.NotificationPreference, error) {
	prefs := make([]*models.NotificationPreference, 0, len(models.AllCategories))
	for _, category := range models.AllCategories {
		pref, err := e.notifications.GetPreference(ctx, userID, category)
		if err != nil {
			if !apperrors.IsNotFound(err) {
				return nil, err
			}
			pref = defaultPreference(userID, category)
		}
		prefs = append(prefs, pref)
	}
	return prefs, nil
}

func (e *Engine) SetPreference(ctx context.Context, pref *models.NotificationPreference) error {
	if pref.UserID <= 0 {
		return fmt.Errorf("%w: user id required", apperrors.ErrValidation)
	}
	if _, ok := templateCatalog[pref.Category]; !ok {
		return fmt.Errorf("%w: unknown category %q", apperrors.ErrValidation, pref.Category)
	}
	return e.notifications.UpsertPreference(ctx, pref)
}

// Send renders and enqueues one notification. The returned outcome is
// OutcomeQueued or OutcomeFiltered; an error means nothing was queued.
func (e *Engine) Send(ctx context.Context, userID int64, category models.NotificationCategory, data map[string]string, opts *SendOptions) (string, error) {
	tpl, ok := templateCatalog[category]
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", apperrors.ErrValidation, category)
	}

	pref, err := e.notifications.GetPreference(ctx, userID, category)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return "", err
		}
		pref = defaultPreference(userID, category)
	}

	if !pref.Enabled || !passesFilters(pref.Filters, data) {
		e.audit(ctx, &models.QueuedNotification{
			ID:       uuid.NewString(),
			UserID:   userID,
			Category: category,
			Priority: tpl.DefaultPriority,
		}, models.NotificationStatusFiltered, "")
		return OutcomeFiltered, nil
	}

	priority := tpl.DefaultPriority
	channels := pref.Channels
	if opts != nil {
		if opts.Priority != "" {
			priority = opts.Priority
		}
		if len(opts.Channels) > 0 {
			channels = opts.Channels
		}
	}
	if len(channels) == 0 {
		channels = []models.Channel{models.ChannelTelegram}
	}

	now := e.now()
	item := &models.QueuedNotification{
		ID:          uuid.NewString(),
		UserID:      userID,
		Category:    category,
		Title:       tpl.Title,
		Message:     renderTemplate(tpl, data),
		Priority:    priority,
		ScheduledAt: nextSlot(pref.Frequency, now),
		Channels:    channels,
		Metadata:    data,
		CreatedAt:   now,
	}

	e.queue.Push(item)
	e.audit(ctx, item, models.NotificationStatusQueued, "")

	e.log.Debug("notification queued",
		logger.String("id", item.ID),
		logger.Int64("user_id", userID),
		logger.String("category", string(category)),
		logger.String("priority", string(priority)),
	)
	return OutcomeQueued, nil
}

// SendBulk fans out sequentially with a fixed pacing delay between
// calls. It is a cooperative throttle, not rate limiting.
func (e *Engine) SendBulk(ctx context.Context, userIDs []int64, category models.NotificationCategory, data map[string]string, opts *SendOptions) *models.BulkResult {
	result := &models.BulkResult{}
	for i, userID := range userIDs {
		if i > 0 {
			time.Sleep(e.pacing)
		}
		outcome, err := e.Send(ctx, userID, category, data, opts)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("user %d: %v", userID, err))
			continue
		}
		if outcome == OutcomeQueued {
			result.Sent++
		}
	}
	return result
}

func (e *Engine) QueueDepth() int {
	return e.queue.Len()
}

func passesFilters(f models.PreferenceFilters, data map[string]string) bool {
	if f.MinAmount != nil || f.MaxAmount != nil {
		raw, ok := data["amount"]
		if ok {
			amount, err := strconv.ParseFloat(raw, 64)
			if err == nil {
				if f.MinAmount != nil && amount < *f.MinAmount {
					return false
				}
				if f.MaxAmount != nil && amount > *f.MaxAmount {
					return false
				}
			}
		}
	}
	if len(f.Assets) > 0 {
		asset, ok := data["asset"]
		if ok {
			found := false
			for _, a := range f.Assets {
				if strings.EqualFold(a, asset) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	if f.RiskLevel != nil {
		risk, ok := data["risk_level"]
		if ok && !strings.EqualFold(risk, *f.RiskLevel) {
			return false
		}
	}
	return true
}

func (e *Engine) audit(ctx context.Context, item *models.QueuedNotification, status, errMsg string) {
	rec := &models.NotificationRecord{
		QueueID:  item.ID,
		UserID:   item.UserID,
		Category: item.Category,
		Title:    item.Title,
		Message:  item.Message,
		Priority: item.Priority,
		Status:   status,
		Error:    errMsg,
	}
	if err := e.notifications.CreateRecord(ctx, rec); err != nil {
		e.log.Error("failed to audit notification", logger.Error(err))
	}
}
