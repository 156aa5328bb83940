package otp

import (
	"context"
	"sync"
	"time"

	"investbot/pkg/apperrors"
	"investbot/pkg/models"
)

// ChallengeStore holds live challenges keyed by challenge id. Redeem is
// the single-use gate: it must remove the challenge atomically on a code
// match so two concurrent verifications cannot both succeed.
type ChallengeStore interface {
	Put(ctx context.Context, ch *models.OTPChallenge) error
	Redeem(ctx context.Context, id, code string, now time.Time) (*models.OTPChallenge, error)
	SweepExpired(ctx context.Context, now time.Time) (int, error)
	Len(ctx context.Context) (int, error)
}

type memoryStore struct {
	mu         sync.Mutex
	challenges map[string]*models.OTPChallenge
}

func NewMemoryStore() ChallengeStore {
	return &memoryStore{challenges: make(map[string]*models.OTPChallenge)}
}

func (s *memoryStore) Put(ctx context.Context, ch *models.OTPChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[ch.ID] = ch
	return nil
}

func (s *memoryStore) Redeem(ctx context.Context, id, code string, now time.Time) (*models.OTPChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if ch.Expired(now) {
		delete(s.challenges, id)
		return nil, apperrors.ErrOTPExpired
	}
	if ch.Code != code {
		return nil, apperrors.ErrOTPMismatch
	}
	delete(s.challenges, id)
	return ch, nil
}

func (s *memoryStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, ch := range s.challenges {
		if ch.Expired(now) {
			delete(s.challenges, id)
			removed++
		}
	}
	return removed, nil
}

func (s *memoryStore) Len(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.challenges), nil
}
