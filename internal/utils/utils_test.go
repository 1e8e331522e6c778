package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusmart/internal/models"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, IsArgon2Hash(hash))

	ok, err := VerifyPassword("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong horse", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("x", "$2a$10$bcrypt")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := models.User{ID: "u1", Email: "a@b.c", Role: models.RoleAdmin}

	signed, claims, err := issuer.Issue(user, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)

	parsed, err := issuer.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", parsed.UserID)
	assert.Equal(t, models.RoleAdmin, parsed.Role)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestTokenRejectsOtherSecretAndExpiry(t *testing.T) {
	signed, _, err := NewTokenIssuer("a", time.Hour).Issue(models.User{ID: "u1"}, time.Now())
	require.NoError(t, err)
	_, err = NewTokenIssuer("b", time.Hour).Parse(signed)
	assert.Error(t, err)

	expired, _, err := NewTokenIssuer("a", time.Minute).Issue(models.User{ID: "u1"}, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = NewTokenIssuer("a", time.Minute).Parse(expired)
	assert.Error(t, err)
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9')
		}
	}
}

func TestUPILink(t *testing.T) {
	link := UPILink("nexusmart@fampay", "NexusMart", 1180)
	assert.Equal(t, "upi://pay?pa=nexusmart@fampay&pn=NexusMart&am=1180&cu=INR", link)

	png, err := UPIQRCode(link, UPIQRSize)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(png), "\x89PNG"))
}

func TestEmailsCarryCodes(t *testing.T) {
	e, err := CancelOTPEmail("order-9", "482913")
	require.NoError(t, err)
	assert.Contains(t, e.HTML, "482913")
	assert.Contains(t, e.Subject, "order-9")

	e, err = RegistrationOTPEmail("Asha", "111222")
	require.NoError(t, err)
	assert.Contains(t, e.HTML, "111222")
	assert.Contains(t, e.HTML, "Asha")
}

func TestOrderStatusEmailShowsDeliveryCodeOnlyWhenShipped(t *testing.T) {
	order := models.Order{
		ID:          "o1",
		OrderStatus: models.OrderShipped,
		DeliveryOTP: "654321",
		Items:       []models.OrderItem{{Name: "Lamp", Price: 500, Quantity: 2}},
		TotalPrice:  1180,
	}
	e, err := OrderStatusEmail(order)
	require.NoError(t, err)
	assert.Contains(t, e.HTML, "654321")
	assert.Contains(t, e.HTML, "1180.00")

	order.OrderStatus = models.OrderDelivered
	e, err = OrderStatusEmail(order)
	require.NoError(t, err)
	assert.NotContains(t, e.HTML, "654321")
}
