package dispatch

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"investbot/pkg/logger"
	"investbot/pkg/models"
)

var messages = map[string]string{
	"welcome":         "👋 Welcome to InvestBot! I can show your account status, manage notifications and answer questions.\n\nIf you haven't yet, link your platform account by sending:\nemail: you@example.com",
	"welcome_linked":  "👋 Welcome back, %s! Your account is linked. Send /help to see what I can do.",
	"help":            "Available commands:\n/start — welcome and setup\n/help — this message\n/balance — where to see your balance\n/status — account and link status\n/link — link your platform account\n/notifications — notification preferences\n/support — talk to support\n\nYou can also just type a question.",
	"unknown_command": "🤔 That command is not recognized. Send /help to see what I understand.",
	"balance_linked":  "📊 Your balance and portfolio breakdown are on the app dashboard. Open the app → Portfolio.",
	"need_link":       "🔗 This chat is not linked to a platform account yet. Send:\nemail: you@example.com",
	"status":          "👤 Account status\nEmail: %s\nAccount: %s\nChat link: %s",
	"link_prompt":     "🔗 To link your platform account, send a message in this format:\nemail: you@example.com",
	"link_already":    "✅ This chat is already linked to your account.",
	"link_success":    "✅ Done! Your platform account is now linked to this chat. You will receive notifications here.",
	"link_not_found":  "❌ No account found with that email. Check the spelling or register in the app first.",
	"link_conflict":   "⚠️ That account is already linked to a different chat. Unlink it in the app first.",
	"link_error":      "❌ Linking failed, please try again later.",
	"notifications":   "🔔 Your notification preferences — tap a category to toggle it:",
	"support_intro":   "🛟 Tell me what's going on and I'll do my best to help. If I can't, a human agent will pick it up.",
	"plans_info":      "📈 We offer flexible and fixed-term plans with daily accrual. Current rates live in the app under Invest → Plans.",
}

func (d *Dispatcher) handleStart(ctx context.Context, role models.BotRole, chatID int64, user *models.User, args string) error {
	if user != nil && user.LinkStatus == models.LinkStatusLinked {
		return d.sender.Send(ctx, role, chatID, fmt.Sprintf(messages["welcome_linked"], user.FullName))
	}
	return d.sender.Send(ctx, role, chatID, messages["welcome"])
}

func (d *Dispatcher) handleHelp(ctx context.Context, role models.BotRole, chatID int64, user *models.User, args string) error {
	return d.sender.Send(ctx, role, chatID, messages["help"])
}

func (d *Dispatcher) handleBalance(ctx context.Context, role models.BotRole, chatID int64, user *models.User, args string) error {
	if user == nil || user.LinkStatus != models.LinkStatusLinked {
		return d.sender.Send(ctx, role, chatID, messages["need_link"])
	}
	return d.sender.Send(ctx, role, chatID, messages["balance_linked"])
}

func (d *Dispatcher) handleStatus(ctx context.Context, role models.BotRole, chatID int64, user *models.User, args string) error {
	if user == nil {
		return d.sender.Send(ctx, role, chatID, messages["need_link"])
	}
	text := fmt.Sprintf(messages["status"], maskEmail(user.Email), user.Status, user.LinkStatus)
	return d.sender.Send(ctx, role, chatID, text)
}

func (d *Dispatcher) handleLink(ctx context.Context, role models.BotRole, chatID int64, user *models.User, args string) error {
	if user != nil && user.LinkStatus == models.LinkStatusLinked {
		return d.sender.Send(ctx, role, chatID, messages["link_already"])
	}
	return d.sender.Send(ctx, role, chatID, messages["link_prompt"])
}

func (d *Dispatcher) handleNotifications(ctx context.Context, role models.BotRole, chatID int64, user *models.User, args string) error {
	if user == nil || user.LinkStatus != models.LinkStatusLinked {
		return d.sender.Send(ctx, role, chatID, messages["need_link"])
	}

	prefs, err := d.prefs.GetPreferences(ctx, user.ID)
	if err != nil {
		d.log.Error("failed to load preferences", logger.Int64("user_id", user.ID), logger.Error(err))
		return d.sender.Send(ctx, role, chatID, "❌ Could not load your preferences, try again later.")
	}

	var rows [][]tele.InlineButton
	for _, pref := range prefs {
		state := "🚫"
		if pref.Enabled {
			state = "✅"
		}
		rows = append(rows, []tele.InlineButton{{
			Text: fmt.Sprintf("%s %s", state, categoryLabel(pref.Category)),
			Data: "notifications:toggle:" + string(pref.Category),
		}})
	}
	markup := &tele.ReplyMarkup{InlineKeyboard: rows}
	return d.sender.Send(ctx, role, chatID, messages["notifications"], markup)
}

func (d *Dispatcher) handleSupport(ctx context.Context, role models.BotRole, chatID int64, user *models.User, args string) error {
	if args != "" {
		return d.freeText(ctx, role, chatID, args)
	}
	return d.sender.Send(ctx, role, chatID, messages["support_intro"])
}

// runAction resolves the inline buttons attached to AI replies.
func (d *Dispatcher) runAction(ctx context.Context, role models.BotRole, chatID int64, payload string) error {
	user := d.lookupUser(ctx, chatID)
	switch payload {
	case "check_balance":
		return d.handleBalance(ctx, role, chatID, user, "")
	case "view_investment_plans":
		return d.sender.Send(ctx, role, chatID, messages["plans_info"])
	case "contact_support":
		return d.handleSupport(ctx, role, chatID, user, "")
	default:
		d.log.Warning("unknown action callback", logger.String("payload", payload))
		return nil
	}
}

// notificationsCallback handles `notifications:<payload>` callbacks and
// returns the acknowledgement text.
func (d *Dispatcher) notificationsCallback(ctx context.Context, role models.BotRole, chatID int64, payload string) (string, error) {
	user := d.lookupUser(ctx, chatID)
	if user == nil || user.LinkStatus != models.LinkStatusLinked {
		return "", d.sender.Send(ctx, role, chatID, messages["need_link"])
	}

	op, arg, _ := strings.Cut(payload, ":")
	if op != "toggle" {
		return "", nil
	}

	prefs, err := d.prefs.GetPreferences(ctx, user.ID)
	if err != nil {
		return "", err
	}
	for _, pref := range prefs {
		if string(pref.Category) != arg {
			continue
		}
		pref.Enabled = !pref.Enabled
		if err := d.prefs.SetPreference(ctx, pref); err != nil {
			return "", err
		}
		state := "off"
		if pref.Enabled {
			state = "on"
		}
		return fmt.Sprintf("%s is now %s", categoryLabel(pref.Category), state), nil
	}
	return "", nil
}

func categoryLabel(c models.NotificationCategory) string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func maskEmail(email string) string {
	name, domain, found := strings.Cut(email, "@")
	if !found || len(name) < 3 {
		return email
	}
	return name[:2] + strings.Repeat("*", len(name)-2) + "@" + domain
}
