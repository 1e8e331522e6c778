package storefront

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusmart/internal/app/apptest"
	"nexusmart/internal/cache"
	"nexusmart/internal/lifecycle"
	"nexusmart/internal/models"
)

var address = models.ShippingInfo{
	Address:    "12 MG Road",
	City:       "Bengaluru",
	PostalCode: "560001",
	PhoneNo:    "9876543210",
}

func TestCartMergesAndPersists(t *testing.T) {
	store, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	cart, err := LoadCart(store)
	require.NoError(t, err)

	p := models.Product{ID: "p1", Name: "Mug", Price: 250, Stock: 4, Images: []models.ProductImage{{URL: "mug.png"}}}
	require.NoError(t, cart.Add(p, 1))
	require.NoError(t, cart.Add(p, 2))
	require.NoError(t, cart.Add(models.Product{ID: "p2", Name: "Tea", Price: 99.5}, 2))

	items := cart.Items()
	require.Len(t, items, 2, "same product must not create a second line")
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "mug.png", items[0].Image)
	assert.Equal(t, 4, items[0].Stock)
	assert.Equal(t, 949.0, cart.Subtotal())

	reloaded, err := LoadCart(store)
	require.NoError(t, err)
	assert.Equal(t, items, reloaded.Items())

	assert.ErrorIs(t, cart.UpdateQuantity("p1", 0), ErrInvalidQuantity)
	require.NoError(t, cart.UpdateQuantity("p1", 1))
	assert.ErrorIs(t, cart.UpdateQuantity("p9", 2), ErrNotInCart)
	require.NoError(t, cart.Remove("p2"))
	assert.Equal(t, 250.0, cart.Subtotal())

	require.NoError(t, cart.Clear())
	reloaded, err = LoadCart(store)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Items())
}

func TestShippingDraftDefaultsCountry(t *testing.T) {
	draft := NewShippingDraft(NewMemoryStorage())

	info, err := draft.Load()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCountry, info.Country)

	missing, err := draft.Save(models.ShippingInfo{City: " Pune "})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"address", "postalCode", "phoneNo"}, missing)

	info, err = draft.Load()
	require.NoError(t, err)
	assert.Equal(t, "Pune", info.City)
}

func TestPayRejectsShortUTRWithoutCallingAPI(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := NewMemoryStorage()
	cart, err := LoadCart(store)
	require.NoError(t, err)
	require.NoError(t, cart.Add(models.Product{ID: "p1", Price: 500}, 2))
	draft := NewShippingDraft(store)
	_, err = draft.Save(address)
	require.NoError(t, err)

	co := NewCheckout(NewClient(srv.URL), cart, draft, store)
	_, err = co.Confirm()
	require.NoError(t, err)

	for _, utr := range []string{"12345678901", "", "12345678901a", "1234567890123"} {
		_, err := co.Pay(context.Background(), utr)
		assert.ErrorIs(t, err, ErrInvalidUTR, utr)
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.Len(t, cart.Items(), 1)
}

func TestConfirmRequiresCartAndAddress(t *testing.T) {
	store := NewMemoryStorage()
	cart, err := LoadCart(store)
	require.NoError(t, err)
	co := NewCheckout(NewClient("http://unused"), cart, NewShippingDraft(store), store)

	_, err = co.Confirm()
	assert.ErrorIs(t, err, ErrEmptyCart)

	require.NoError(t, cart.Add(models.Product{ID: "p1", Price: 100}, 1))
	_, err = co.Confirm()
	assert.ErrorIs(t, err, ErrIncompleteShipping)

	_, err = co.Pay(context.Background(), "123456789012")
	assert.ErrorIs(t, err, ErrNotConfirmed)
}

// storefront wires a customer client against the in-process API.
type storefront struct {
	client   *Client
	cart     *Cart
	checkout *Checkout
	wishlist *Wishlist
}

func newCustomer(t *testing.T, srv *apptest.Server, email string) *storefront {
	t.Helper()
	ctx := context.Background()
	client := NewClient(srv.URL)
	_, err := client.Register(ctx, "Asha", email, "password123")
	require.NoError(t, err)
	_, err = client.Verify(ctx, email, srv.OTP(t, cache.OTPRegister, email))
	require.NoError(t, err)
	require.NotEmpty(t, client.Token())

	store := NewMemoryStorage()
	cart, err := LoadCart(store)
	require.NoError(t, err)
	draft := NewShippingDraft(store)
	_, err = draft.Save(address)
	require.NoError(t, err)
	return &storefront{
		client:   client,
		cart:     cart,
		checkout: NewCheckout(client, cart, draft, store),
		wishlist: NewWishlist(client),
	}
}

func newAdmin(t *testing.T, srv *apptest.Server) *Admin {
	t.Helper()
	client := NewClient(srv.URL)
	_, err := client.Login(context.Background(), apptest.AdminEmail, apptest.AdminPassword)
	require.NoError(t, err)
	return NewAdmin(client)
}

func (s *storefront) buy(t *testing.T, p models.Product, qty int) *models.Order {
	t.Helper()
	require.NoError(t, s.cart.Add(p, qty))
	_, err := s.checkout.Confirm()
	require.NoError(t, err)
	order, err := s.checkout.Pay(context.Background(), "123456789012")
	require.NoError(t, err)
	return order
}

func TestCheckoutEndToEnd(t *testing.T) {
	srv := apptest.New(t)
	p := srv.Product(t, "Headphones", 500)
	s := newCustomer(t, srv, "asha@example.com")
	ctx := context.Background()

	require.NoError(t, s.cart.Add(p, 2))
	prices, err := s.checkout.Confirm()
	require.NoError(t, err)
	assert.Equal(t, models.Prices{ItemsPrice: 1000, TaxPrice: 180, ShippingPrice: 0, TotalPrice: 1180}, prices)

	png, err := s.checkout.QR(ctx)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))

	// Frozen prices survive later cart edits until the next Confirm.
	require.NoError(t, s.cart.UpdateQuantity(p.ID, 3))
	_, err = s.checkout.Pay(ctx, "123456789012")
	assert.Equal(t, http.StatusBadRequest, StatusOf(err), "frozen totals no longer match the cart")

	require.NoError(t, s.cart.UpdateQuantity(p.ID, 2))
	order, err := s.checkout.Pay(ctx, "123456789012")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.OrderStatus)
	assert.Equal(t, models.PaymentPending, order.PaymentInfo.Status)
	assert.Empty(t, s.cart.Items())
	_, ok, err := s.checkout.OrderInfo()
	require.NoError(t, err)
	assert.False(t, ok)

	mine, err := s.client.MyOrders(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, order.ID, mine[0].ID)
}

func TestAdminFlowWithDeliveryOTP(t *testing.T) {
	srv := apptest.New(t)
	p := srv.Product(t, "Headphones", 500)
	s := newCustomer(t, srv, "asha@example.com")
	admin := newAdmin(t, srv)
	ctx := context.Background()

	order := s.buy(t, p, 2)

	_, err := admin.Ship(ctx, order.ID)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err), "cannot ship before payment is verified")

	_, err = admin.VerifyPayment(ctx, order.ID)
	require.NoError(t, err)
	shipped, err := admin.Ship(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, shipped.OrderStatus)

	_, err = admin.Deliver(ctx, order.ID, "12ab")
	assert.ErrorIs(t, err, ErrInvalidDeliveryOTP)

	mine, err := s.client.MyOrders(ctx)
	require.NoError(t, err)
	delivered, err := admin.Deliver(ctx, order.ID, mine[0].DeliveryOTP)
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, delivered.OrderStatus)

	all, err := admin.Orders(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1180.0, Revenue(all))
	assert.Len(t, FilterTab(all, lifecycle.TabDelivered), 1)

	stats, err := admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalOrders)
}

func TestAdminCancelShippedTwoStep(t *testing.T) {
	srv := apptest.New(t)
	p := srv.Product(t, "Headphones", 500)
	s := newCustomer(t, srv, "asha@example.com")
	admin := newAdmin(t, srv)
	ctx := context.Background()

	order := s.buy(t, p, 2)
	_, err := admin.VerifyPayment(ctx, order.ID)
	require.NoError(t, err)
	shipped, err := admin.Ship(ctx, order.ID)
	require.NoError(t, err)

	_, err = admin.Cancel(ctx, *shipped, nil)
	assert.ErrorIs(t, err, ErrRequireOTP)

	// A stale copy that still says Processing gets requireOtp from the server.
	stale := *shipped
	stale.OrderStatus = models.OrderProcessing
	_, err = admin.Cancel(ctx, stale, nil)
	assert.ErrorIs(t, err, ErrRequireOTP)

	prompted := 0
	cancelled, err := admin.Cancel(ctx, *shipped, func(_ context.Context, o models.Order) (string, error) {
		prompted++
		return srv.OTP(t, cache.OTPCancel, o.ID), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, prompted)
	assert.Equal(t, models.OrderCancelled, cancelled.OrderStatus)

	_, err = admin.Cancel(ctx, *cancelled, nil)
	assert.ErrorIs(t, err, lifecycle.ErrTerminal)
}

func TestCustomerCancelPendingOrder(t *testing.T) {
	srv := apptest.New(t)
	p := srv.Product(t, "Kettle", 300)
	s := newCustomer(t, srv, "asha@example.com")

	order := s.buy(t, p, 1)
	assert.Equal(t, 404.0, order.TotalPrice)

	cancelled, err := s.client.CancelOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.OrderStatus)
}

func TestAnonymousWishlistMakesNoRequests(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	ctx := context.Background()
	anon := NewWishlist(NewClient(srv.URL))
	assert.ErrorIs(t, anon.Add(ctx, models.Product{ID: "p1"}), ErrLoginRequired)
	assert.ErrorIs(t, anon.Remove(ctx, "p1"), ErrLoginRequired)
	_, err := anon.Toggle(ctx, models.Product{ID: "p1"})
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestWishlistToggle(t *testing.T) {
	srv := apptest.New(t)
	p := srv.Product(t, "Kettle", 900)
	ctx := context.Background()

	anon := NewWishlist(NewClient(srv.URL))
	assert.ErrorIs(t, anon.Add(ctx, p), ErrLoginRequired)

	s := newCustomer(t, srv, "asha@example.com")
	added, err := s.wishlist.Toggle(ctx, p)
	require.NoError(t, err)
	assert.True(t, added)
	require.Len(t, s.wishlist.Items(), 1)
	assert.Equal(t, p.ID, s.wishlist.Items()[0].ID)

	added, err = s.wishlist.Toggle(ctx, p)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, s.wishlist.Items())

	require.NoError(t, s.wishlist.Refresh(ctx))
	assert.Empty(t, s.wishlist.Items())

	err = s.wishlist.Add(ctx, models.Product{ID: "gone"})
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Empty(t, s.wishlist.Items(), "refetch drops the optimistic entry")
}
