package dispatch

import (
	"context"
	"regexp"
	"strings"

	tele "gopkg.in/telebot.v3"

	"investbot/pkg/apperrors"
	"investbot/pkg/logger"
	"investbot/pkg/models"
	"investbot/storage"
)

// Messenger is the outbound slice of the bot registry the dispatcher
// needs.
type Messenger interface {
	Send(ctx context.Context, role models.BotRole, chatID int64, text string, opts ...interface{}) error
	AnswerCallback(ctx context.Context, role models.BotRole, callbackID, text string) error
}

// AIResponder resolves free-text replies.
type AIResponder interface {
	GenerateResponse(ctx context.Context, message string, userID *int64, chatID int64) *models.AIResponse
}

// PreferenceStore is the notification-engine slice used by the
// /notifications command.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, userID int64) ([]*models.NotificationPreference, error)
	SetPreference(ctx context.Context, pref *models.NotificationPreference) error
}

var linkTextPattern = regexp.MustCompile(`(?i)^email:\s*(\S+)$`)

type commandFunc func(ctx context.Context, role models.BotRole, chatID int64, user *models.User, args string) error

// Dispatcher routes conversational traffic from the support and
// communication bots: slash commands, account-linking text and AI-backed
// free text.
type Dispatcher struct {
	sender       Messenger
	users        storage.IUserStorage
	interactions storage.IInteractionStorage
	ai           AIResponder
	prefs        PreferenceStore
	linker       *Linker
	log          logger.ILogger
	commands     map[string]commandFunc
}

func NewDispatcher(sender Messenger, stg storage.IStorage, ai AIResponder, prefs PreferenceStore, log logger.ILogger) *Dispatcher {
	d := &Dispatcher{
		sender:       sender,
		users:        stg.User(),
		interactions: stg.Interaction(),
		ai:           ai,
		prefs:        prefs,
		linker:       NewLinker(stg.User(), log),
		log:          log,
	}
	d.commands = map[string]commandFunc{
		"start":         d.handleStart,
		"help":          d.handleHelp,
		"balance":       d.handleBalance,
		"status":        d.handleStatus,
		"link":          d.handleLink,
		"notifications": d.handleNotifications,
		"support":       d.handleSupport,
	}
	return d
}

// HandleMessage implements bot.UpdateHandler for message updates.
func (d *Dispatcher) HandleMessage(ctx context.Context, role models.BotRole, chatID, senderID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, "/") {
		return d.runCommand(ctx, role, chatID, text)
	}

	if m := linkTextPattern.FindStringSubmatch(text); m != nil {
		return d.linkByEmail(ctx, role, chatID, m[1])
	}

	return d.freeText(ctx, role, chatID, text)
}

// HandleCallback implements bot.UpdateHandler for callback updates. The
// callback is acknowledged no matter how handling goes, so the client's
// loading state always clears.
func (d *Dispatcher) HandleCallback(ctx context.Context, role models.BotRole, chatID, senderID int64, callbackID, data string) error {
	ackText := ""
	defer func() {
		if err := d.sender.AnswerCallback(ctx, role, callbackID, ackText); err != nil {
			d.log.Error("callback ack failed", logger.Error(err))
		}
	}()

	cb := ParseCallback(strings.TrimPrefix(data, "\f"))
	switch cb.Kind {
	case CallbackCommand:
		return d.runCommand(ctx, role, chatID, "/"+cb.Payload)
	case CallbackAction:
		return d.runAction(ctx, role, chatID, cb.Payload)
	case CallbackLinkAccount:
		return d.linkByEmail(ctx, role, chatID, cb.Payload)
	case CallbackNotifications:
		done, err := d.notificationsCallback(ctx, role, chatID, cb.Payload)
		ackText = done
		return err
	default:
		d.log.Warning("unknown callback", logger.String("data", data))
		return nil
	}
}

func (d *Dispatcher) runCommand(ctx context.Context, role models.BotRole, chatID int64, text string) error {
	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")
	// Commands may arrive suffixed with the bot username in group chats.
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	args := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))

	handler, ok := d.commands[strings.ToLower(name)]
	if !ok {
		return d.sender.Send(ctx, role, chatID, messages["unknown_command"])
	}

	user := d.lookupUser(ctx, chatID)
	return handler(ctx, role, chatID, user, args)
}

func (d *Dispatcher) linkByEmail(ctx context.Context, role models.BotRole, chatID int64, email string) error {
	_, err := d.linker.Link(ctx, chatID, email)
	switch {
	case err == nil:
		return d.sender.Send(ctx, role, chatID, messages["link_success"])
	case apperrors.IsNotFound(err):
		return d.sender.Send(ctx, role, chatID, messages["link_not_found"])
	case apperrors.IsConflict(err):
		return d.sender.Send(ctx, role, chatID, messages["link_conflict"])
	default:
		d.log.Error("account linking failed", logger.Int64("chat_id", chatID), logger.Error(err))
		return d.sender.Send(ctx, role, chatID, messages["link_error"])
	}
}

func (d *Dispatcher) freeText(ctx context.Context, role models.BotRole, chatID int64, text string) error {
	user := d.lookupUser(ctx, chatID)
	var userID *int64
	if user != nil {
		userID = &user.ID
	}

	resp := d.ai.GenerateResponse(ctx, text, userID, chatID)

	var opts []interface{}
	if markup := actionMarkup(resp.SuggestedActions); markup != nil {
		opts = append(opts, markup)
	}
	if err := d.sender.Send(ctx, role, chatID, resp.Message, opts...); err != nil {
		return err
	}

	if resp.RequiresHuman {
		rec := &models.InteractionRecord{
			UserID:  userID,
			ChatID:  chatID,
			Kind:    models.InteractionSupportEscalation,
			Content: text,
			Metadata: map[string]string{
				"reason": "ai_requires_human",
			},
		}
		if err := d.interactions.Create(ctx, rec); err != nil {
			d.log.Error("failed to record escalation", logger.Error(err))
		}
	}
	return nil
}

func (d *Dispatcher) lookupUser(ctx context.Context, chatID int64) *models.User {
	user, err := d.users.GetByChatID(ctx, chatID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			d.log.Error("user lookup failed", logger.Int64("chat_id", chatID), logger.Error(err))
		}
		return nil
	}
	return user
}

func actionMarkup(actions []string) *tele.ReplyMarkup {
	if len(actions) == 0 {
		return nil
	}
	var rows [][]tele.InlineButton
	for _, action := range actions {
		rows = append(rows, []tele.InlineButton{{
			Text: action,
			Data: "action:" + slugify(action),
		}})
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

func slugify(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), "_"))
}
