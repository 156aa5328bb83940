package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"investbot/pkg/apperrors"
	"investbot/pkg/models"
	"investbot/pkg/otp"
)

const challengeNamespace = "otp_challenge"

// Redis keys outlive ExpiresAt by a grace period so a late verification
// still reports Expired instead of NotFound.
const expiryGrace = 24 * time.Hour

// ChallengeStore keeps OTP challenges in redis so multiple instances can
// share them. Implements otp.ChallengeStore.
type ChallengeStore struct {
	client *redis.Client
}

func NewChallengeStore(addr, password string) *ChallengeStore {
	return &ChallengeStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       0,
		}),
	}
}

func key(id string) string {
	return challengeNamespace + ":" + id
}

func (s *ChallengeStore) Put(ctx context.Context, ch *models.OTPChallenge) error {
	payload, err := json.Marshal(ch)
	if err != nil {
		return err
	}
	ttl := time.Until(ch.ExpiresAt) + expiryGrace
	return s.client.Set(ctx, key(ch.ID), payload, ttl).Err()
}

func (s *ChallengeStore) Redeem(ctx context.Context, id, code string, now time.Time) (*models.OTPChallenge, error) {
	raw, err := s.client.Get(ctx, key(id)).Result()
	if err == redis.Nil {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: redis get: %v", apperrors.ErrExternalService, err)
	}

	var ch models.OTPChallenge
	if err := json.Unmarshal([]byte(raw), &ch); err != nil {
		return nil, err
	}
	if ch.Expired(now) {
		s.client.Del(ctx, key(id))
		return nil, apperrors.ErrOTPExpired
	}
	if ch.Code != code {
		return nil, apperrors.ErrOTPMismatch
	}

	// GETDEL decides the winner when two verifications race: only one
	// caller observes a value.
	taken, err := s.client.GetDel(ctx, key(id)).Result()
	if err == redis.Nil || taken == "" {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: redis getdel: %v", apperrors.ErrExternalService, err)
	}
	return &ch, nil
}

// SweepExpired is a no-op; redis evicts keys by TTL.
func (s *ChallengeStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func (s *ChallengeStore) Len(ctx context.Context) (int, error) {
	keys, err := s.client.Keys(ctx, challengeNamespace+":*").Result()
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

var _ otp.ChallengeStore = (*ChallengeStore)(nil)
