// Package pricing computes checkout totals. The storefront computes them at
// confirmation time and the API recomputes them before accepting an order.
package pricing

import (
	"math"

	"nexusmart/internal/models"
)

const (
	TaxRate               = 0.18
	FreeShippingThreshold = 500.0
	FlatShipping          = 50.0
	// Tolerance is the largest difference accepted between client and server totals.
	Tolerance = 0.01

	UTRLength = 12
	OTPLength = 6
)

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func Subtotal(items []models.OrderItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return Round2(total)
}

func Shipping(subtotal float64) float64 {
	if subtotal > FreeShippingThreshold {
		return 0
	}
	return FlatShipping
}

func Compute(items []models.OrderItem) models.Prices {
	subtotal := Subtotal(items)
	shipping := Shipping(subtotal)
	tax := Round2(TaxRate * subtotal)
	return models.Prices{
		ItemsPrice:    subtotal,
		TaxPrice:      tax,
		ShippingPrice: shipping,
		TotalPrice:    Round2(subtotal + shipping + tax),
	}
}

// Matches reports whether submitted agrees with the recomputed prices.
func Matches(submitted, computed models.Prices) bool {
	return math.Abs(submitted.ItemsPrice-computed.ItemsPrice) <= Tolerance &&
		math.Abs(submitted.TaxPrice-computed.TaxPrice) <= Tolerance &&
		math.Abs(submitted.ShippingPrice-computed.ShippingPrice) <= Tolerance &&
		math.Abs(submitted.TotalPrice-computed.TotalPrice) <= Tolerance
}

func allDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ValidUTR reports whether s is a 12-digit numeric transaction reference.
func ValidUTR(s string) bool {
	return allDigits(s, UTRLength)
}

func ValidOTP(s string) bool {
	return allDigits(s, OTPLength)
}

// SanitizeUTR keeps the digits of s and truncates to the UTR length, the way
// the payment form normalises input.
func SanitizeUTR(s string) string {
	out := make([]byte, 0, UTRLength)
	for i := 0; i < len(s) && len(out) < UTRLength; i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// Revenue sums totals of orders whose payment has been verified.
func Revenue(orders []models.Order) float64 {
	var total float64
	for _, o := range orders {
		if o.PaymentInfo.Status == models.PaymentVerified {
			total += o.TotalPrice
		}
	}
	return Round2(total)
}
