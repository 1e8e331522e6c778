// Package lifecycle holds the order state machine. It performs no I/O: callers
// load an order, apply a transition and persist the result.
//
//	Pending|Processing -> Shipped -> Delivered
//	any non-terminal   -> Cancelled (Shipped needs a cancellation OTP)
//
// Payment moves Pending -> Verified|Failed on its own track and gates shipping.
package lifecycle

import (
	"crypto/subtle"
	"time"

	"github.com/pkg/errors"

	"nexusmart/internal/models"
	"nexusmart/internal/pricing"
)

var (
	ErrInvalidUTR           = errors.New("UTR must be a 12-digit number")
	ErrTerminal             = errors.New("order is already delivered or cancelled")
	ErrPaymentNotPending    = errors.New("payment has already been reviewed")
	ErrPaymentNotVerified   = errors.New("payment must be verified before shipping")
	ErrNotProcessing        = errors.New("only processing orders can be shipped")
	ErrNotShipped           = errors.New("only shipped orders can be delivered")
	ErrDeliveryOTPRequired  = errors.New("delivery OTP is required")
	ErrInvalidDeliveryOTP   = errors.New("invalid delivery OTP")
	ErrCancelOTPRequired    = errors.New("order is shipped, a cancellation OTP is required")
	ErrCancelOTPNotRequired = errors.New("cancellation OTP is only needed for shipped orders")
	ErrShippedCancel        = errors.New("order has already shipped, contact support to cancel it")
	ErrUnsupportedStatus    = errors.New("unsupported status transition")
)

// Submit initialises a freshly submitted order.
func Submit(o *models.Order, now time.Time) error {
	if !pricing.ValidUTR(o.PaymentInfo.UTR) {
		return ErrInvalidUTR
	}
	o.OrderStatus = models.OrderPending
	o.PaymentInfo.Status = models.PaymentPending
	if o.PaymentInfo.Method == "" {
		o.PaymentInfo.Method = models.PaymentMethodUPI
	}
	o.DeliveryOTP = ""
	o.CreatedAt = now
	o.PaidAt, o.DeliveredAt, o.CancelledAt = nil, nil, nil
	return nil
}

func IsTerminal(s models.OrderStatus) bool {
	return s == models.OrderDelivered || s == models.OrderCancelled
}

// VerifyPayment accepts the submitted UTR and moves the order to Processing.
func VerifyPayment(o *models.Order, now time.Time) error {
	if IsTerminal(o.OrderStatus) {
		return ErrTerminal
	}
	if o.PaymentInfo.Status != models.PaymentPending {
		return ErrPaymentNotPending
	}
	o.PaymentInfo.Status = models.PaymentVerified
	o.OrderStatus = models.OrderProcessing
	o.PaidAt = &now
	return nil
}

// RejectPayment marks the payment failed. The order itself stays where it is.
func RejectPayment(o *models.Order) error {
	if IsTerminal(o.OrderStatus) {
		return ErrTerminal
	}
	if o.PaymentInfo.Status != models.PaymentPending {
		return ErrPaymentNotPending
	}
	o.PaymentInfo.Status = models.PaymentFailed
	return nil
}

// CanShip reports the shipping guard without mutating the order.
func CanShip(o *models.Order) error {
	if IsTerminal(o.OrderStatus) {
		return ErrTerminal
	}
	if o.PaymentInfo.Status != models.PaymentVerified {
		return ErrPaymentNotVerified
	}
	if o.OrderStatus != models.OrderProcessing {
		return ErrNotProcessing
	}
	return nil
}

// Ship stores the server-generated delivery OTP and moves the order to Shipped.
func Ship(o *models.Order, deliveryOTP string) error {
	if err := CanShip(o); err != nil {
		return err
	}
	o.OrderStatus = models.OrderShipped
	o.DeliveryOTP = deliveryOTP
	return nil
}

// Deliver completes the order if otp matches the stored delivery OTP. A
// mismatch leaves the order Shipped.
func Deliver(o *models.Order, otp string, now time.Time) error {
	if IsTerminal(o.OrderStatus) {
		return ErrTerminal
	}
	if o.OrderStatus != models.OrderShipped {
		return ErrNotShipped
	}
	if otp == "" {
		return ErrDeliveryOTPRequired
	}
	if o.DeliveryOTP == "" || subtle.ConstantTimeCompare([]byte(otp), []byte(o.DeliveryOTP)) != 1 {
		return ErrInvalidDeliveryOTP
	}
	o.OrderStatus = models.OrderDelivered
	o.DeliveredAt = &now
	return nil
}

// Cancellable is the single guard shared by customer and admin flows.
func Cancellable(o *models.Order) bool {
	return !IsTerminal(o.OrderStatus)
}

// NeedsCancelOTP reports whether cancelling o requires the two-step OTP protocol.
func NeedsCancelOTP(o *models.Order) bool {
	return o.OrderStatus == models.OrderShipped
}

// Cancel cancels o. otpVerified must be true for shipped orders; the caller is
// responsible for checking and consuming the cancellation OTP.
func Cancel(o *models.Order, otpVerified bool, now time.Time) error {
	if !Cancellable(o) {
		return ErrTerminal
	}
	if NeedsCancelOTP(o) && !otpVerified {
		return ErrCancelOTPRequired
	}
	o.OrderStatus = models.OrderCancelled
	o.CancelledAt = &now
	return nil
}

// CancelByCustomer cancels o on the customer's behalf. Customers may only
// cancel before shipping; a shipped order goes through support and the admin
// OTP flow.
func CancelByCustomer(o *models.Order, now time.Time) error {
	if !Cancellable(o) {
		return ErrTerminal
	}
	if NeedsCancelOTP(o) {
		return ErrShippedCancel
	}
	return Cancel(o, false, now)
}

// Tab classifies an order for the admin dashboard.
type Tab string

const (
	TabPending   Tab = "pending"
	TabShipped   Tab = "shipped"
	TabDelivered Tab = "delivered"
	TabCancelled Tab = "cancelled"
)

func TabOf(o *models.Order) Tab {
	switch {
	case o.OrderStatus == models.OrderCancelled || o.PaymentInfo.Status == models.PaymentFailed:
		return TabCancelled
	case o.OrderStatus == models.OrderShipped:
		return TabShipped
	case o.OrderStatus == models.OrderDelivered:
		return TabDelivered
	default:
		return TabPending
	}
}

// IsBusinessError reports whether err is one of the transition guard errors,
// as opposed to an infrastructure failure.
func IsBusinessError(err error) bool {
	for _, target := range []error{
		ErrInvalidUTR, ErrTerminal, ErrPaymentNotPending, ErrPaymentNotVerified,
		ErrNotProcessing, ErrNotShipped, ErrDeliveryOTPRequired, ErrInvalidDeliveryOTP,
		ErrCancelOTPRequired, ErrCancelOTPNotRequired, ErrShippedCancel, ErrUnsupportedStatus,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
