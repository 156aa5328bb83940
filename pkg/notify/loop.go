package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"investbot/pkg/apperrors"
	"investbot/pkg/logger"
	"investbot/pkg/models"
)

const (
	dispatchTick    = 5 * time.Second
	maxPerPass      = 10
	maxRetries      = 3
	retryBackoffInc = time.Minute
)

func deliveryRole(category models.NotificationCategory) models.BotRole {
	if category == models.CategorySystemAlerts {
		return models.RoleAlerts
	}
	return models.RoleCommunication
}

// RunDispatchLoop promotes ready queue items to delivery on a fixed tick
// until ctx is cancelled.
func (e *Engine) RunDispatchLoop(ctx context.Context) {
	ticker := time.NewTicker(dispatchTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.pass(ctx)
		}
	}
}

// DispatchPass runs a single pass; exposed for tests and for the admin
// surface to force a flush. The in-flight guard lives on the engine, so
// a forced flush and a ticker pass never overlap.
func (e *Engine) DispatchPass(ctx context.Context) {
	e.pass(ctx)
}

func (e *Engine) pass(ctx context.Context) {
	if e.queue.Len() == 0 {
		return
	}
	if !e.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer e.inFlight.Store(false)

	now := e.now()
	items := e.queue.PopReady(now, maxPerPass)
	for _, item := range items {
		if err := e.deliver(ctx, item); err != nil {
			e.retryOrDrop(ctx, item, err)
			continue
		}
		e.notifications.UpdateRecordStatus(ctx, item.ID, models.NotificationStatusSent, "")
	}
}

// deliver fans out across the item's channels. A failing channel does
// not stop the others; the item fails if any channel failed.
func (e *Engine) deliver(ctx context.Context, item *models.QueuedNotification) error {
	var failures []string
	for _, channel := range item.Channels {
		var err error
		switch channel {
		case models.ChannelTelegram:
			err = e.deliverChat(ctx, item)
		case models.ChannelEmail, models.ChannelSMS:
			// External channel collaborators are out of scope; log the
			// handoff and treat it as delivered.
			e.log.Info("external channel handoff",
				logger.String("channel", string(channel)),
				logger.String("id", item.ID),
				logger.Int64("user_id", item.UserID),
			)
		default:
			err = fmt.Errorf("%w: unknown channel %q", apperrors.ErrValidation, channel)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", channel, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%s", strings.Join(failures, "; "))
	}
	return nil
}

func (e *Engine) deliverChat(ctx context.Context, item *models.QueuedNotification) error {
	user, err := e.users.GetByID(ctx, item.UserID)
	if err != nil {
		return err
	}
	if user.ChatID == nil || user.LinkStatus != models.LinkStatusLinked {
		return fmt.Errorf("%w: user %d has no linked chat", apperrors.ErrState, item.UserID)
	}
	text := item.Title + "\n\n" + item.Message
	return e.sender.Send(ctx, deliveryRole(item.Category), *user.ChatID, text)
}

// retryOrDrop reschedules a failed item with linear backoff, dropping it
// as a terminal failure after maxRetries attempts.
func (e *Engine) retryOrDrop(ctx context.Context, item *models.QueuedNotification, cause error) {
	if item.RetryCount >= maxRetries-1 {
		e.log.Error("notification dropped after retries",
			logger.String("id", item.ID),
			logger.Int("retries", item.RetryCount+1),
			logger.Error(cause),
		)
		e.notifications.UpdateRecordStatus(ctx, item.ID, models.NotificationStatusFailed, cause.Error())
		return
	}

	item.RetryCount++
	item.ScheduledAt = e.now().Add(time.Duration(item.RetryCount) * retryBackoffInc)
	e.queue.Push(item)

	e.log.Warning("notification delivery failed, rescheduled",
		logger.String("id", item.ID),
		logger.Int("retry", item.RetryCount),
		logger.Error(cause),
	)
}
