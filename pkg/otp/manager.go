package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"investbot/pkg/apperrors"
	"investbot/pkg/logger"
	"investbot/pkg/models"
)

const sweepInterval = 5 * time.Minute

// Deliverer sends the generated code through the OTP-role bot.
type Deliverer interface {
	Send(ctx context.Context, role models.BotRole, chatID int64, text string, opts ...interface{}) error
}

type Manager struct {
	store     ChallengeStore
	deliverer Deliverer
	opsChatID int64
	log       logger.ILogger
	now       func() time.Time
}

func NewManager(store ChallengeStore, deliverer Deliverer, opsChatID int64, log logger.ILogger) *Manager {
	return &Manager{
		store:     store,
		deliverer: deliverer,
		opsChatID: opsChatID,
		log:       log,
		now:       time.Now,
	}
}

// Issue generates a challenge and relays the code to the operations chat.
// The challenge is stored only after delivery succeeds, so a failed send
// leaves no dangling state.
func (m *Manager) Issue(ctx context.Context, userID int64, purpose models.OTPPurpose) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("%w: user id required", apperrors.ErrValidation)
	}
	switch purpose {
	case models.PurposeWithdrawal, models.PurposePasswordReset, models.Purpose2FA:
	default:
		return "", fmt.Errorf("%w: unknown otp purpose %q", apperrors.ErrValidation, purpose)
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}

	now := m.now()
	ch := &models.OTPChallenge{
		ID:        uuid.NewString(),
		UserID:    userID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(purpose.TTL()),
		CreatedAt: now,
	}

	text := fmt.Sprintf("🔐 Verification code for user %d (%s): %s\nValid until %s",
		userID, purpose, code, ch.ExpiresAt.Format("15:04 02.01.2006"))
	if err := m.deliverer.Send(ctx, models.RoleOTP, m.opsChatID, text); err != nil {
		m.log.Error("otp delivery failed", logger.Int64("user_id", userID), logger.Error(err))
		return "", fmt.Errorf("%w: otp delivery: %v", apperrors.ErrExternalService, err)
	}

	if err := m.store.Put(ctx, ch); err != nil {
		return "", err
	}

	m.log.Info("otp issued",
		logger.String("challenge_id", ch.ID),
		logger.Int64("user_id", userID),
		logger.String("purpose", string(purpose)),
	)
	return ch.ID, nil
}

// Verify redeems a challenge exactly once. Failure reasons are
// apperrors.ErrNotFound, ErrOTPExpired (challenge removed) and
// ErrOTPMismatch (challenge kept).
func (m *Manager) Verify(ctx context.Context, challengeID, code string) (*models.OTPChallenge, error) {
	if challengeID == "" || code == "" {
		return nil, fmt.Errorf("%w: challenge id and code required", apperrors.ErrValidation)
	}
	ch, err := m.store.Redeem(ctx, challengeID, code, m.now())
	if err != nil {
		return nil, err
	}
	m.log.Info("otp verified", logger.String("challenge_id", challengeID), logger.Int64("user_id", ch.UserID))
	return ch, nil
}

// RunSweeper runs the periodic expiry sweep until ctx is cancelled. The
// sweep is hygiene only; Redeem handles expiry on its own.
func (m *Manager) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := m.store.SweepExpired(ctx, m.now())
			if err != nil {
				m.log.Error("otp sweep failed", logger.Error(err))
				continue
			}
			if removed > 0 {
				m.log.Debug("otp sweep removed expired challenges", logger.Int("removed", removed))
			}
		}
	}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
