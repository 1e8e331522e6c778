package cache

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type OTPPurpose string

const (
	OTPRegister OTPPurpose = "register_otp"
	OTPReset    OTPPurpose = "reset_otp"
	OTPCancel   OTPPurpose = "cancel_otp"
)

const (
	RegisterOTPTTL = 15 * time.Minute
	ResetOTPTTL    = 15 * time.Minute
	CancelOTPTTL   = 10 * time.Minute
)

// SaveOTP stores code for subject (an email or an order id), replacing any
// code issued earlier for the same purpose.
func (c *Cache) SaveOTP(ctx context.Context, purpose OTPPurpose, subject, code string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key(string(purpose), subject), code, ttl).Err()
}

// CheckOTP reports whether code matches the stored one without using it up.
func (c *Cache) CheckOTP(ctx context.Context, purpose OTPPurpose, subject, code string) (bool, error) {
	stored, err := c.rdb.Get(ctx, key(string(purpose), subject)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "read otp")
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1, nil
}

func (c *Cache) DeleteOTP(ctx context.Context, purpose OTPPurpose, subject string) error {
	return c.rdb.Del(ctx, key(string(purpose), subject)).Err()
}

// ConsumeOTP checks code against the stored one and deletes it on a match.
// A wrong or expired code returns false and leaves the stored code in place.
func (c *Cache) ConsumeOTP(ctx context.Context, purpose OTPPurpose, subject, code string) (bool, error) {
	ok, err := c.CheckOTP(ctx, purpose, subject, code)
	if err != nil || !ok {
		return false, err
	}
	n, err := c.rdb.Del(ctx, key(string(purpose), subject)).Result()
	if err != nil {
		return false, errors.Wrap(err, "consume otp")
	}
	// Another request consumed it between GET and DEL.
	return n == 1, nil
}
