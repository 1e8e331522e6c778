package storefront

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"nexusmart/internal/lifecycle"
	"nexusmart/internal/models"
	"nexusmart/internal/pricing"
)

var (
	// ErrRequireOTP means the order needs a cancellation OTP; request one and retry.
	ErrRequireOTP         = errors.New("order is shipped, a cancellation OTP is required")
	ErrInvalidDeliveryOTP = errors.New("delivery OTP must be 6 digits")
	ErrCancelAborted      = errors.New("cancellation aborted")
)

// OTPPrompt asks the operator for the code emailed to the admin address.
// Returning an empty code aborts.
type OTPPrompt func(ctx context.Context, order models.Order) (string, error)

// Admin wraps the dashboard actions.
type Admin struct {
	client *Client
}

func NewAdmin(client *Client) *Admin {
	return &Admin{client: client}
}

func (a *Admin) Orders(ctx context.Context, tab lifecycle.Tab) ([]models.Order, error) {
	return a.client.AdminOrders(ctx, tab)
}

func (a *Admin) Stats(ctx context.Context) (*models.OrderStats, error) {
	return a.client.AdminStats(ctx)
}

// Revenue sums the verified totals of orders already fetched.
func Revenue(orders []models.Order) float64 {
	return pricing.Revenue(orders)
}

// FilterTab keeps the orders shown under tab.
func FilterTab(orders []models.Order, tab lifecycle.Tab) []models.Order {
	var out []models.Order
	for i := range orders {
		if lifecycle.TabOf(&orders[i]) == tab {
			out = append(out, orders[i])
		}
	}
	return out
}

func (a *Admin) VerifyPayment(ctx context.Context, id string) (*models.Order, error) {
	return a.client.UpdateOrder(ctx, id, models.AdminOrderUpdate{
		PaymentStatus: models.PaymentVerified,
		Status:        models.OrderProcessing,
	})
}

func (a *Admin) RejectPayment(ctx context.Context, id string) (*models.Order, error) {
	return a.client.UpdateOrder(ctx, id, models.AdminOrderUpdate{PaymentStatus: models.PaymentFailed})
}

func (a *Admin) Ship(ctx context.Context, id string) (*models.Order, error) {
	return a.client.UpdateOrder(ctx, id, models.AdminOrderUpdate{Status: models.OrderShipped})
}

// Deliver completes the order with the code the customer reads out.
func (a *Admin) Deliver(ctx context.Context, id, otp string) (*models.Order, error) {
	otp = strings.TrimSpace(otp)
	if !pricing.ValidOTP(otp) {
		return nil, ErrInvalidDeliveryOTP
	}
	return a.client.UpdateOrder(ctx, id, models.AdminOrderUpdate{Status: models.OrderDelivered, DeliveryOTP: otp})
}

// Cancel cancels order. Shipped orders go through the two-step protocol: a
// cancellation OTP is requested, prompt supplies it, and the cancel is
// resubmitted with it. A requireOtp answer the client did not expect (the
// order shipped in the meantime) is returned as ErrRequireOTP.
func (a *Admin) Cancel(ctx context.Context, order models.Order, prompt OTPPrompt) (*models.Order, error) {
	if !lifecycle.Cancellable(&order) {
		return nil, lifecycle.ErrTerminal
	}
	upd := models.AdminOrderUpdate{Status: models.OrderCancelled}

	if lifecycle.NeedsCancelOTP(&order) {
		if prompt == nil {
			return nil, ErrRequireOTP
		}
		if err := a.client.RequestCancelOTP(ctx, order.ID); err != nil {
			return nil, err
		}
		code, err := prompt(ctx, order)
		if err != nil {
			return nil, err
		}
		if code = strings.TrimSpace(code); code == "" {
			return nil, ErrCancelAborted
		}
		upd.CancelOTP = code
	}

	updated, err := a.client.UpdateOrder(ctx, order.ID, upd)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RequireOTP {
		return nil, errors.Wrap(ErrRequireOTP, apiErr.Message)
	}
	return updated, err
}
