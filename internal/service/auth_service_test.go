package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusmart/internal/models"
)

var sixDigits = regexp.MustCompile(`\b\d{6}\b`)

func TestRegisterVerifyLogin(t *testing.T) {
	env := newTestEnv(t)
	env.auth.newOTP = fixedOTPs("246810")
	ctx := context.Background()

	u, err := env.auth.Register(ctx, "Asha", "Asha@Example.com", "longpassword")
	require.NoError(t, err)
	assert.False(t, u.IsVerified)
	assert.Equal(t, models.RoleUser, u.Role)

	mails := env.mailer.To("asha@example.com")
	require.Len(t, mails, 1)
	assert.Contains(t, mails[0].HTML, "246810")

	_, err = env.auth.Login(ctx, "asha@example.com", "longpassword")
	assert.ErrorIs(t, err, ErrNotVerified)

	_, err = env.auth.Verify(ctx, "asha@example.com", "000000")
	assert.ErrorIs(t, err, ErrInvalidOTP)

	verified, err := env.auth.Verify(ctx, "asha@example.com", "246810")
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)

	logged, err := env.auth.Login(ctx, "ASHA@example.com", "longpassword")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	_, err = env.auth.Login(ctx, "asha@example.com", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestRegisterRejectsTakenAndInvalid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.customer(t, "taken@example.com")

	_, err := env.auth.Register(ctx, "X", "taken@example.com", "longpassword")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = env.auth.Register(ctx, "X", "not-an-email", "longpassword")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"email"}, verr.Fields)

	_, err = env.auth.Register(ctx, "X", "new@example.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestReregisterUnverifiedSendsFreshCode(t *testing.T) {
	env := newTestEnv(t)
	env.auth.newOTP = fixedOTPs("111111", "222222")
	ctx := context.Background()

	first, err := env.auth.Register(ctx, "Asha", "asha@example.com", "longpassword")
	require.NoError(t, err)
	second, err := env.auth.Register(ctx, "Asha K", "asha@example.com", "otherpassword")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = env.auth.Verify(ctx, "asha@example.com", "222222")
	require.NoError(t, err)
	_, err = env.auth.Login(ctx, "asha@example.com", "otherpassword")
	assert.NoError(t, err)
}

func TestForgotAndResetPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.auth.EnsureAdmin(ctx, "boss@example.com", "initialpass"))

	require.NoError(t, env.auth.ForgotPassword(ctx, "nobody@example.com"))
	assert.Empty(t, env.mailer.To("nobody@example.com"))

	require.NoError(t, env.auth.ForgotPassword(ctx, "boss@example.com"))
	mails := env.mailer.To("boss@example.com")
	require.Len(t, mails, 1)
	code := sixDigits.FindString(mails[0].HTML)
	require.NotEmpty(t, code)

	err := env.auth.ResetPassword(ctx, "boss@example.com", code, "newpassword", "different")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	require.NoError(t, env.auth.ResetPassword(ctx, "boss@example.com", code, "newpassword", "newpassword"))
	err = env.auth.ResetPassword(ctx, "boss@example.com", code, "again12345", "again12345")
	assert.ErrorIs(t, err, ErrInvalidOTP)

	u, err := env.auth.Login(ctx, "boss@example.com", "newpassword")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
}

func TestMeIsCached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.customer(t, "asha@example.com")

	me, err := env.auth.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", me.Email)
	assert.True(t, env.redis.Exists("user:"+u.ID))
}
