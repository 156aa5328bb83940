package dispatch

import (
	"context"
	"fmt"
	"regexp"

	"investbot/pkg/apperrors"
	"investbot/pkg/logger"
	"investbot/pkg/models"
	"investbot/storage"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Linker mutates the user's chat identity and link status; nothing else
// writes those fields.
type Linker struct {
	users storage.IUserStorage
	log   logger.ILogger
}

func NewLinker(users storage.IUserStorage, log logger.ILogger) *Linker {
	return &Linker{users: users, log: log}
}

// Link associates a chat with the platform account registered under
// email. Linking the same chat again is idempotent; a different chat on
// an already-linked account is a conflict and mutates nothing.
func (l *Linker) Link(ctx context.Context, chatID int64, email string) (*models.User, error) {
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: %q is not a valid email", apperrors.ErrValidation, email)
	}

	user, err := l.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user.LinkStatus == models.LinkStatusLinked && user.ChatID != nil {
		if *user.ChatID == chatID {
			return user, nil
		}
		return nil, fmt.Errorf("%w: account already linked to another chat", apperrors.ErrConflict)
	}

	if err := l.users.SetChatIdentity(ctx, user.ID, chatID, models.LinkStatusLinked); err != nil {
		return nil, err
	}

	user.ChatID = &chatID
	user.LinkStatus = models.LinkStatusLinked

	l.log.Info("account linked",
		logger.Int64("user_id", user.ID),
		logger.Int64("chat_id", chatID),
	)
	return user, nil
}
