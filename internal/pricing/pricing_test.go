package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nexusmart/internal/models"
)

func TestCompute_FreeShippingAboveThreshold(t *testing.T) {
	prices := Compute([]models.OrderItem{{ProductID: "p1", Price: 500, Quantity: 2}})

	assert.Equal(t, 1000.0, prices.ItemsPrice)
	assert.Equal(t, 180.0, prices.TaxPrice)
	assert.Equal(t, 0.0, prices.ShippingPrice)
	assert.Equal(t, 1180.0, prices.TotalPrice)
}

func TestCompute_FlatShippingAtOrBelowThreshold(t *testing.T) {
	prices := Compute([]models.OrderItem{{ProductID: "p1", Price: 250, Quantity: 2}})

	assert.Equal(t, 500.0, prices.ItemsPrice)
	assert.Equal(t, 50.0, prices.ShippingPrice)
	assert.Equal(t, 90.0, prices.TaxPrice)
	assert.Equal(t, 640.0, prices.TotalPrice)
}

func TestCompute_TaxRoundedToPaise(t *testing.T) {
	prices := Compute([]models.OrderItem{{ProductID: "p1", Price: 99.99, Quantity: 1}})

	assert.Equal(t, 18.0, prices.TaxPrice)
	assert.Equal(t, 167.99, prices.TotalPrice)
}

func TestMatches(t *testing.T) {
	computed := models.Prices{ItemsPrice: 1000, TaxPrice: 180, ShippingPrice: 0, TotalPrice: 1180}

	assert.True(t, Matches(computed, computed))
	assert.True(t, Matches(models.Prices{ItemsPrice: 1000, TaxPrice: 180.004, TotalPrice: 1180}, computed))
	assert.False(t, Matches(models.Prices{ItemsPrice: 1000, TaxPrice: 0, TotalPrice: 1000}, computed))
}

func TestValidUTR(t *testing.T) {
	assert.True(t, ValidUTR("123456789012"))
	assert.False(t, ValidUTR("12345678901"))
	assert.False(t, ValidUTR("1234567890123"))
	assert.False(t, ValidUTR("12345678901a"))
	assert.False(t, ValidUTR(""))
}

func TestValidOTP(t *testing.T) {
	assert.True(t, ValidOTP("004512"))
	assert.False(t, ValidOTP("4512"))
	assert.False(t, ValidOTP("45a123"))
}

func TestSanitizeUTR(t *testing.T) {
	assert.Equal(t, "123456789012", SanitizeUTR("1234-5678-9012-345"))
	assert.Equal(t, "42", SanitizeUTR("utr 42"))
}

func TestRevenue_CountsOnlyVerifiedPayments(t *testing.T) {
	orders := []models.Order{
		{TotalPrice: 1180, PaymentInfo: models.PaymentInfo{Status: models.PaymentVerified}},
		{TotalPrice: 640, PaymentInfo: models.PaymentInfo{Status: models.PaymentPending}},
		{TotalPrice: 99, PaymentInfo: models.PaymentInfo{Status: models.PaymentFailed}},
		{TotalPrice: 20.5, PaymentInfo: models.PaymentInfo{Status: models.PaymentVerified}},
	}

	assert.Equal(t, 1200.5, Revenue(orders))
}
