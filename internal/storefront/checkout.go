package storefront

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"nexusmart/internal/models"
	"nexusmart/internal/pricing"
)

var (
	ErrEmptyCart          = errors.New("your cart is empty")
	ErrIncompleteShipping = errors.New("please complete the shipping address")
	ErrNotConfirmed       = errors.New("confirm the order before paying")
	ErrInvalidUTR         = errors.New("please enter a valid 12-digit UTR/Transaction ID")
)

// Checkout drives shipping → confirm → pay.
type Checkout struct {
	client   *Client
	cart     *Cart
	shipping *ShippingDraft
	store    Storage
}

func NewCheckout(client *Client, cart *Cart, shipping *ShippingDraft, store Storage) *Checkout {
	return &Checkout{client: client, cart: cart, shipping: shipping, store: store}
}

// Confirm computes the price breakdown from the cart and freezes it. Later
// cart edits do not change what Pay submits until Confirm runs again.
func (co *Checkout) Confirm() (models.Prices, error) {
	items := co.cart.OrderItems()
	if len(items) == 0 {
		return models.Prices{}, ErrEmptyCart
	}
	info, err := co.shipping.Load()
	if err != nil {
		return models.Prices{}, err
	}
	if len(info.MissingFields()) > 0 {
		return models.Prices{}, ErrIncompleteShipping
	}
	prices := pricing.Compute(items)
	if err := co.store.Save(KeyOrderInfo, prices); err != nil {
		return models.Prices{}, err
	}
	return prices, nil
}

// OrderInfo returns the frozen prices of the last confirmation.
func (co *Checkout) OrderInfo() (models.Prices, bool, error) {
	var prices models.Prices
	ok, err := co.store.Load(KeyOrderInfo, &prices)
	return prices, ok, err
}

// QR downloads the payment QR for the confirmed total.
func (co *Checkout) QR(ctx context.Context) ([]byte, error) {
	prices, ok, err := co.OrderInfo()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotConfirmed
	}
	return co.client.UPIQR(ctx, prices.TotalPrice)
}

// Pay submits the order with the frozen prices and the customer's UTR. An
// invalid UTR is rejected here without calling the API. On success the cart
// and the frozen prices are cleared.
func (co *Checkout) Pay(ctx context.Context, utr string) (*models.Order, error) {
	utr = strings.TrimSpace(utr)
	if !pricing.ValidUTR(utr) {
		return nil, ErrInvalidUTR
	}
	prices, ok, err := co.OrderInfo()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotConfirmed
	}
	items := co.cart.OrderItems()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	info, err := co.shipping.Load()
	if err != nil {
		return nil, err
	}

	order, err := co.client.CreateOrder(ctx, models.NewOrderRequest{
		Items:         items,
		ShippingInfo:  info,
		ItemsPrice:    prices.ItemsPrice,
		TaxPrice:      prices.TaxPrice,
		ShippingPrice: prices.ShippingPrice,
		TotalPrice:    prices.TotalPrice,
		PaymentInfo: models.PaymentInfo{
			UTR:    utr,
			Method: models.PaymentMethodUPI,
			Status: models.PaymentPending,
		},
	})
	if err != nil {
		return nil, err
	}
	if err := co.cart.Clear(); err != nil {
		return order, err
	}
	return order, co.store.Delete(KeyOrderInfo)
}
