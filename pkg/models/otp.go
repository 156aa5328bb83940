package models

import "time"

type OTPPurpose string

const (
	PurposeWithdrawal    OTPPurpose = "withdrawal"
	PurposePasswordReset OTPPurpose = "password_reset"
	Purpose2FA           OTPPurpose = "2fa"
)

// TTL returns how long a challenge of this purpose stays valid.
func (p OTPPurpose) TTL() time.Duration {
	if p == PurposeWithdrawal {
		return 4 * time.Hour
	}
	return 15 * time.Minute
}

type OTPChallenge struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id"`
	Code      string     `json:"code"`
	Purpose   OTPPurpose `json:"purpose"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (c *OTPChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
