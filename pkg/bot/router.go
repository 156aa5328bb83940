package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	tele "gopkg.in/telebot.v3"

	"investbot/pkg/apperrors"
	"investbot/pkg/logger"
	"investbot/pkg/models"
	"investbot/storage"
)

// UpdateHandler receives classified support/communication traffic.
type UpdateHandler interface {
	HandleMessage(ctx context.Context, role models.BotRole, chatID, senderID int64, text string) error
	HandleCallback(ctx context.Context, role models.BotRole, chatID, senderID int64, callbackID, data string) error
}

var otpEchoPattern = regexp.MustCompile(`^\d{6}$`)

// Router classifies inbound webhook payloads and hands them to the role
// handlers. One update per call; ordering is not load-bearing.
type Router struct {
	registry     *Registry
	users        storage.IUserStorage
	interactions storage.IInteractionStorage
	handler      UpdateHandler
	log          logger.ILogger
}

func NewRouter(registry *Registry, stg storage.IStorage, handler UpdateHandler, log logger.ILogger) *Router {
	return &Router{
		registry:     registry,
		users:        stg.User(),
		interactions: stg.Interaction(),
		handler:      handler,
		log:          log,
	}
}

// classified is the projection of a raw update the rest of the system
// sees; the verbatim payload is dropped after this point.
type classified struct {
	updateID   int
	kind       string
	chatID     int64
	senderID   int64
	content    string
	callbackID string
}

// Classification is an ordered priority chain; the first populated field
// wins, and anything unknown falls back to "message".
func classify(u *tele.Update) *classified {
	c := &classified{updateID: u.ID, kind: models.InteractionMessage}

	switch {
	case u.Message != nil:
		c.kind = models.InteractionMessage
		c.content = u.Message.Text
	case u.EditedMessage != nil:
		c.kind = models.InteractionEditedMessage
		c.content = u.EditedMessage.Text
	case u.Callback != nil:
		c.kind = models.InteractionCallback
		c.content = u.Callback.Data
		c.callbackID = u.Callback.ID
	case u.MyChatMember != nil || u.ChatMember != nil:
		c.kind = models.InteractionMembershipChange
	}

	c.senderID, c.chatID = extractIDs(u)
	return c
}

// extractIDs searches the update sub-fields in classification order for a
// sender and chat id.
func extractIDs(u *tele.Update) (senderID, chatID int64) {
	for _, m := range []*tele.Message{u.Message, u.EditedMessage} {
		if m == nil {
			continue
		}
		if m.Sender != nil {
			senderID = m.Sender.ID
		}
		if m.Chat != nil {
			chatID = m.Chat.ID
		}
		return senderID, chatID
	}
	if cb := u.Callback; cb != nil {
		if cb.Sender != nil {
			senderID = cb.Sender.ID
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			chatID = cb.Message.Chat.ID
		}
		return senderID, chatID
	}
	for _, mc := range []*tele.ChatMemberUpdate{u.MyChatMember, u.ChatMember} {
		if mc == nil {
			continue
		}
		if mc.Sender != nil {
			senderID = mc.Sender.ID
		}
		if mc.Chat != nil {
			chatID = mc.Chat.ID
		}
		return senderID, chatID
	}
	return 0, 0
}

// RouteInboundUpdate processes one verified webhook payload for a role.
// Handler and audit failures are logged and absorbed; an error return
// means the payload itself was unusable.
func (r *Router) RouteInboundUpdate(ctx context.Context, body []byte, role models.BotRole) error {
	var update tele.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return fmt.Errorf("%w: malformed update payload: %v", apperrors.ErrValidation, err)
	}

	c := classify(&update)
	if c.chatID == 0 && c.senderID == 0 {
		r.log.Warning("update carries no chat or sender, dropping",
			logger.String("role", string(role)),
			logger.Int("update_id", c.updateID),
		)
		return nil
	}

	user := r.lookupUser(ctx, c.chatID)
	r.audit(ctx, user, c)

	switch role {
	case models.RoleSupport, models.RoleCommunication:
		r.dispatchConversational(ctx, role, c)
	case models.RoleOTP:
		r.dispatchOTP(ctx, role, c)
	case models.RoleAlerts:
		// Alerts bot is outbound-only; membership changes are the only
		// inbound traffic worth keeping.
		if c.kind == models.InteractionMembershipChange {
			r.log.Info("alerts bot membership change",
				logger.Int64("chat_id", c.chatID),
				logger.Int64("sender_id", c.senderID),
			)
		}
	default:
		return fmt.Errorf("%w: unhandled bot role %q", apperrors.ErrValidation, role)
	}
	return nil
}

func (r *Router) dispatchConversational(ctx context.Context, role models.BotRole, c *classified) {
	var err error
	switch c.kind {
	case models.InteractionMessage, models.InteractionEditedMessage:
		err = r.handler.HandleMessage(ctx, role, c.chatID, c.senderID, c.content)
	case models.InteractionCallback:
		err = r.handler.HandleCallback(ctx, role, c.chatID, c.senderID, c.callbackID, c.content)
	case models.InteractionMembershipChange:
		r.log.Info("membership change",
			logger.String("role", string(role)),
			logger.Int64("chat_id", c.chatID),
		)
	}
	if err != nil {
		r.log.Error("update handler failed",
			logger.String("role", string(role)),
			logger.Int64("chat_id", c.chatID),
			logger.Error(err),
		)
	}
}

func (r *Router) dispatchOTP(ctx context.Context, role models.BotRole, c *classified) {
	if c.kind != models.InteractionMessage || !otpEchoPattern.MatchString(c.content) {
		return
	}
	if err := r.registry.Send(ctx, role, c.chatID, "✅ Code received. Enter it in the app to continue."); err != nil {
		r.log.Error("otp echo reply failed", logger.Error(err))
	}
}

func (r *Router) lookupUser(ctx context.Context, chatID int64) *models.User {
	if chatID == 0 {
		return nil
	}
	user, err := r.users.GetByChatID(ctx, chatID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			r.log.Error("user lookup failed", logger.Int64("chat_id", chatID), logger.Error(err))
		}
		return nil
	}
	return user
}

func (r *Router) audit(ctx context.Context, user *models.User, c *classified) {
	if user == nil {
		return
	}
	rec := &models.InteractionRecord{
		UserID:  &user.ID,
		ChatID:  c.chatID,
		Kind:    c.kind,
		Content: c.content,
		Metadata: map[string]string{
			"update_id": fmt.Sprint(c.updateID),
		},
	}
	if err := r.interactions.Create(ctx, rec); err != nil {
		r.log.Error("failed to audit interaction", logger.Error(err))
	}
}
