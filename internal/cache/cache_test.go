package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusmart/internal/models"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb), mr
}

func TestOTPConsumedOnlyOnMatch(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	require.NoError(t, c.SaveOTP(ctx, OTPCancel, "order-1", "123456", CancelOTPTTL))

	ok, err := c.ConsumeOTP(ctx, OTPCancel, "order-1", "654321")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.ConsumeOTP(ctx, OTPCancel, "order-1", "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ConsumeOTP(ctx, OTPCancel, "order-1", "123456")
	require.NoError(t, err)
	assert.False(t, ok, "a code works once")
}

func TestCheckOTPLeavesCodeInPlace(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	require.NoError(t, c.SaveOTP(ctx, OTPCancel, "order-1", "123456", CancelOTPTTL))

	for i := 0; i < 2; i++ {
		ok, err := c.CheckOTP(ctx, OTPCancel, "order-1", "123456")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := c.CheckOTP(ctx, OTPCancel, "order-1", "000000")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.DeleteOTP(ctx, OTPCancel, "order-1"))
	ok, err = c.CheckOTP(ctx, OTPCancel, "order-1", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOTPPurposesAreSeparate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	require.NoError(t, c.SaveOTP(ctx, OTPRegister, "a@b.c", "111111", RegisterOTPTTL))

	ok, err := c.ConsumeOTP(ctx, OTPReset, "a@b.c", "111111")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOTPExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	require.NoError(t, c.SaveOTP(ctx, OTPCancel, "order-1", "123456", CancelOTPTTL))
	mr.FastForward(CancelOTPTTL + time.Second)

	ok, err := c.ConsumeOTP(ctx, OTPCancel, "order-1", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBlacklist(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	require.NoError(t, c.BlacklistToken(ctx, "jti-1", time.Minute))

	revoked, err := c.IsTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = c.IsTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRateLimitWindow(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	for i := 1; i <= 3; i++ {
		n, err := c.IncrementRateLimit(ctx, "rate:login:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.EqualValues(t, i, n)
	}
	assert.Greater(t, c.RateLimitTTL(ctx, "rate:login:1.2.3.4"), time.Duration(0))

	mr.FastForward(time.Minute + time.Second)
	n, err := c.IncrementRateLimit(ctx, "rate:login:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestProductsReadThroughAndInvalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	loads := 0
	load := func() ([]models.Product, error) {
		loads++
		return []models.Product{{ID: "p1", Name: "Lamp"}}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := c.Products(ctx, load)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Lamp", got[0].Name)
	}
	assert.Equal(t, 1, loads)

	require.NoError(t, c.InvalidateProduct(ctx, "p1"))
	_, err := c.Products(ctx, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestCachedUserHasNoPassword(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	load := func() (*models.User, error) {
		return &models.User{ID: "u1", Email: "a@b.c", Password: "hash"}, nil
	}
	_, err := c.User(ctx, "u1", load)
	require.NoError(t, err)

	cached, err := c.User(ctx, "u1", func() (*models.User, error) {
		t.Fatal("loader called on a warm cache")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", cached.Email)
	assert.Empty(t, cached.Password)
}
