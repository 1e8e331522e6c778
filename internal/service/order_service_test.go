package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"nexusmart/internal/cache"
	"nexusmart/internal/events"
	"nexusmart/internal/lifecycle"
	"nexusmart/internal/models"
	"nexusmart/internal/pricing"
)

type OrderServiceSuite struct {
	suite.Suite
	env      *testEnv
	ctx      context.Context
	customer models.User
	lamp     models.Product
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceSuite))
}

func (s *OrderServiceSuite) SetupTest() {
	s.env = newTestEnv(s.T())
	s.ctx = context.Background()
	s.customer = s.env.customer(s.T(), "asha@example.com")
	s.lamp = s.env.product(s.T(), "Lamp", 500)
	s.env.orders.newOTP = fixedOTPs("424242", "135790")
}

func (s *OrderServiceSuite) request(qty int, utr string) models.NewOrderRequest {
	items := []models.OrderItem{{ProductID: s.lamp.ID, Name: s.lamp.Name, Price: s.lamp.Price, Quantity: qty}}
	p := pricing.Compute(items)
	return models.NewOrderRequest{
		Items:         items,
		ShippingInfo:  shipping(),
		ItemsPrice:    p.ItemsPrice,
		TaxPrice:      p.TaxPrice,
		ShippingPrice: p.ShippingPrice,
		TotalPrice:    p.TotalPrice,
		PaymentInfo:   models.PaymentInfo{UTR: utr, Method: models.PaymentMethodUPI},
	}
}

func (s *OrderServiceSuite) placeOrder() *models.Order {
	o, err := s.env.orders.Create(s.ctx, s.customer.ID, s.request(2, "123456789012"))
	s.Require().NoError(err)
	return o
}

func (s *OrderServiceSuite) update(id string, upd models.AdminOrderUpdate) (*models.Order, error) {
	return s.env.orders.AdminUpdate(s.ctx, id, upd, "admin-1")
}

func (s *OrderServiceSuite) shippedOrder() *models.Order {
	o := s.placeOrder()
	_, err := s.update(o.ID, models.AdminOrderUpdate{PaymentStatus: models.PaymentVerified, Status: models.OrderProcessing})
	s.Require().NoError(err)
	_, err = s.update(o.ID, models.AdminOrderUpdate{Status: models.OrderShipped})
	s.Require().NoError(err)
	return o
}

func (s *OrderServiceSuite) stored(id string) *models.Order {
	o, err := s.env.store.Orders.Get(s.ctx, id)
	s.Require().NoError(err)
	return o
}

func (s *OrderServiceSuite) TestCreateComputesPricesAndStartsPending() {
	o := s.placeOrder()

	s.Equal(1000.0, o.ItemsPrice)
	s.Equal(180.0, o.TaxPrice)
	s.Equal(0.0, o.ShippingPrice)
	s.Equal(1180.0, o.TotalPrice)
	s.Equal(models.OrderPending, o.OrderStatus)
	s.Equal(models.PaymentPending, o.PaymentInfo.Status)
	s.Equal(s.env.now, o.CreatedAt)

	evs := s.env.recorder.Events()
	s.Require().Len(evs, 1)
	s.Equal(events.OrderCreated, evs[0].Type)
	s.Len(s.env.mailer.To("asha@example.com"), 1)
	s.Equal(1.0, testutil.ToFloat64(s.env.metrics.OrdersCreated))
}

func (s *OrderServiceSuite) TestCreateRejectsTamperedPrices() {
	req := s.request(1, "123456789012")
	req.TotalPrice = 10
	_, err := s.env.orders.Create(s.ctx, s.customer.ID, req)
	s.ErrorIs(err, ErrPriceMismatch)

	all, _ := s.env.store.Orders.ListAll(s.ctx)
	s.Empty(all)
}

func (s *OrderServiceSuite) TestCreateUsesCatalogPrice() {
	req := s.request(1, "123456789012")
	req.Items[0].Price = 1
	req.Items[0].Name = "Free lamp"
	o, err := s.env.orders.Create(s.ctx, s.customer.ID, req)
	s.Require().NoError(err)
	s.Equal("Lamp", o.Items[0].Name)
	s.Equal(500.0, o.Items[0].Price)
	s.Equal(50.0, o.ShippingPrice)
}

func (s *OrderServiceSuite) TestCreateRejectsShortUTR() {
	_, err := s.env.orders.Create(s.ctx, s.customer.ID, s.request(1, "12345"))
	s.ErrorIs(err, lifecycle.ErrInvalidUTR)
}

func (s *OrderServiceSuite) TestCreateRequiresShippingFields() {
	req := s.request(1, "123456789012")
	req.ShippingInfo.City = ""
	req.ShippingInfo.Country = ""
	_, err := s.env.orders.Create(s.ctx, s.customer.ID, req)

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal([]string{"shippingInfo.city"}, verr.Fields, "country defaults to India")
}

func (s *OrderServiceSuite) TestCreateRejectsUnknownProduct() {
	req := s.request(1, "123456789012")
	req.Items[0].ProductID = "missing"
	_, err := s.env.orders.Create(s.ctx, s.customer.ID, req)
	s.ErrorIs(err, ErrUnknownProduct)
}

func (s *OrderServiceSuite) TestVerifyPaymentMovesToProcessing() {
	o := s.placeOrder()
	got, err := s.update(o.ID, models.AdminOrderUpdate{PaymentStatus: models.PaymentVerified, Status: models.OrderProcessing})
	s.Require().NoError(err)
	s.Equal(models.OrderProcessing, got.OrderStatus)
	s.Equal(models.PaymentVerified, got.PaymentInfo.Status)
	s.Require().NotNil(got.PaidAt)
}

func (s *OrderServiceSuite) TestRejectPaymentKeepsOrderOpen() {
	o := s.placeOrder()
	got, err := s.update(o.ID, models.AdminOrderUpdate{PaymentStatus: models.PaymentFailed})
	s.Require().NoError(err)
	s.Equal(models.PaymentFailed, got.PaymentInfo.Status)
	s.Equal(models.OrderPending, got.OrderStatus)

	tab, err := s.env.orders.ListAll(s.ctx, lifecycle.TabCancelled)
	s.Require().NoError(err)
	s.Len(tab, 1)
}

func (s *OrderServiceSuite) TestShipRequiresVerifiedPayment() {
	o := s.placeOrder()
	_, err := s.update(o.ID, models.AdminOrderUpdate{Status: models.OrderShipped})
	s.ErrorIs(err, lifecycle.ErrPaymentNotVerified)
	s.Equal(models.OrderPending, s.stored(o.ID).OrderStatus)
	s.Equal(1.0, testutil.ToFloat64(s.env.metrics.RejectedTransition.WithLabelValues("ship", "payment_not_verified")))
}

func (s *OrderServiceSuite) TestShipGeneratesDeliveryOTPHiddenFromAdmin() {
	o := s.placeOrder()
	_, err := s.update(o.ID, models.AdminOrderUpdate{PaymentStatus: models.PaymentVerified})
	s.Require().NoError(err)

	got, err := s.update(o.ID, models.AdminOrderUpdate{Status: models.OrderShipped})
	s.Require().NoError(err)
	s.Equal(models.OrderShipped, got.OrderStatus)
	s.Empty(got.DeliveryOTP)

	s.Equal("424242", s.stored(o.ID).DeliveryOTP)
	mine, err := s.env.orders.ListMine(s.ctx, s.customer.ID)
	s.Require().NoError(err)
	s.Equal("424242", mine[0].DeliveryOTP)

	all, err := s.env.orders.ListAll(s.ctx, "")
	s.Require().NoError(err)
	s.Empty(all[0].DeliveryOTP)

	mails := s.env.mailer.To("asha@example.com")
	s.Contains(mails[len(mails)-1].HTML, "424242")
}

func (s *OrderServiceSuite) TestDeliverNeedsMatchingOTP() {
	o := s.shippedOrder()

	_, err := s.update(o.ID, models.AdminOrderUpdate{Status: models.OrderDelivered, DeliveryOTP: "000000"})
	s.ErrorIs(err, lifecycle.ErrInvalidDeliveryOTP)
	s.Equal(models.OrderShipped, s.stored(o.ID).OrderStatus)

	got, err := s.update(o.ID, models.AdminOrderUpdate{Status: models.OrderDelivered, DeliveryOTP: "424242"})
	s.Require().NoError(err)
	s.Equal(models.OrderDelivered, got.OrderStatus)
	s.NotNil(got.DeliveredAt)
}

func (s *OrderServiceSuite) TestCancelPendingWithoutOTP() {
	o := s.placeOrder()
	got, err := s.update(o.ID, models.AdminOrderUpdate{Status: models.OrderCancelled})
	s.Require().NoError(err)
	s.Equal(models.OrderCancelled, got.OrderStatus)
}

func (s *OrderServiceSuite) TestCancelShippedTwoStep() {
	o := s.shippedOrder()

	_, err := s.update(o.ID, models.AdminOrderUpdate{Status: models.OrderCancelled})
	s.ErrorIs(err, lifecycle.ErrCancelOTPRequired)
	s.Equal(models.OrderShipped, s.stored(o.ID).OrderStatus)

	s.Require().NoError(s.env.orders.RequestCancelOTP(s.ctx, o.ID))
	adminMails := s.env.mailer.To(s.env.adminMail)
	s.Require().Len(adminMails, 1)
	s.Contains(adminMails[0].HTML, "135790")

	_, err = s.update(o.ID, models.AdminOrderUpdate{Status: models.OrderCancelled, CancelOTP: "424242"})
	s.ErrorIs(err, ErrInvalidCancelOTP, "the delivery OTP is not a cancellation OTP")
	s.Equal(models.OrderShipped, s.stored(o.ID).OrderStatus)

	got, err := s.update(o.ID, models.AdminOrderUpdate{Status: models.OrderCancelled, CancelOTP: "135790"})
	s.Require().NoError(err)
	s.Equal(models.OrderCancelled, got.OrderStatus)

	ok, err := s.env.cache.ConsumeOTP(s.ctx, cache.OTPCancel, o.ID, "135790")
	s.Require().NoError(err)
	s.False(ok, "cancellation OTP is consumed")
}

func (s *OrderServiceSuite) TestCancelOTPExpires() {
	o := s.shippedOrder()
	s.Require().NoError(s.env.orders.RequestCancelOTP(s.ctx, o.ID))
	s.env.redis.FastForward(cache.CancelOTPTTL + time.Second)

	_, err := s.update(o.ID, models.AdminOrderUpdate{Status: models.OrderCancelled, CancelOTP: "135790"})
	s.ErrorIs(err, ErrInvalidCancelOTP)
}

func (s *OrderServiceSuite) TestRequestCancelOTPOnlyForShipped() {
	o := s.placeOrder()
	s.ErrorIs(s.env.orders.RequestCancelOTP(s.ctx, o.ID), lifecycle.ErrCancelOTPNotRequired)
}

func (s *OrderServiceSuite) TestCustomerCannotCancelShippedOrder() {
	o := s.shippedOrder()
	_, err := s.env.orders.CancelByCustomer(s.ctx, s.customer.ID, o.ID)
	s.ErrorIs(err, lifecycle.ErrShippedCancel)
	s.Equal(models.OrderShipped, s.stored(o.ID).OrderStatus)

	other := s.env.customer(s.T(), "ravi@example.com")
	pending, err := s.env.orders.Create(s.ctx, s.customer.ID, s.request(1, "999999999999"))
	s.Require().NoError(err)
	_, err = s.env.orders.CancelByCustomer(s.ctx, other.ID, pending.ID)
	s.ErrorIs(err, ErrNotOwner)

	got, err := s.env.orders.CancelByCustomer(s.ctx, s.customer.ID, pending.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderCancelled, got.OrderStatus)

	_, err = s.env.orders.CancelByCustomer(s.ctx, s.customer.ID, pending.ID)
	s.ErrorIs(err, lifecycle.ErrTerminal)
}

func (s *OrderServiceSuite) TestCancelOTPSurvivesFailedWrite() {
	o := s.shippedOrder()
	s.Require().NoError(s.env.orders.RequestCancelOTP(s.ctx, o.ID))

	flaky := &failingUpdates{OrderRepository: s.env.orders.orders, failures: 1}
	s.env.orders.orders = flaky

	_, err := s.update(o.ID, models.AdminOrderUpdate{Status: models.OrderCancelled, CancelOTP: "135790"})
	s.ErrorIs(err, errStoreDown)
	s.Equal(models.OrderShipped, s.stored(o.ID).OrderStatus)

	got, err := s.update(o.ID, models.AdminOrderUpdate{Status: models.OrderCancelled, CancelOTP: "135790"})
	s.Require().NoError(err)
	s.Equal(models.OrderCancelled, got.OrderStatus)
	s.Equal(models.OrderCancelled, s.stored(o.ID).OrderStatus)

	ok, err := s.env.cache.CheckOTP(s.ctx, cache.OTPCancel, o.ID, "135790")
	s.Require().NoError(err)
	s.False(ok, "code is dropped once the cancellation is stored")
}

func (s *OrderServiceSuite) TestTerminalOrdersRejectEverything() {
	o := s.placeOrder()
	_, err := s.update(o.ID, models.AdminOrderUpdate{Status: models.OrderCancelled})
	s.Require().NoError(err)

	for _, upd := range []models.AdminOrderUpdate{
		{PaymentStatus: models.PaymentVerified},
		{PaymentStatus: models.PaymentFailed},
		{Status: models.OrderShipped},
		{Status: models.OrderDelivered, DeliveryOTP: "424242"},
		{Status: models.OrderCancelled},
	} {
		_, err := s.update(o.ID, upd)
		s.ErrorIs(err, lifecycle.ErrTerminal, "%+v", upd)
	}
}

func (s *OrderServiceSuite) TestUnsupportedUpdates() {
	o := s.placeOrder()
	for _, upd := range []models.AdminOrderUpdate{
		{},
		{Status: models.OrderPending},
		{Status: models.OrderProcessing},
		{PaymentStatus: models.PaymentPending},
		{PaymentStatus: models.PaymentVerified, Status: models.OrderShipped},
	} {
		_, err := s.update(o.ID, upd)
		s.ErrorIs(err, lifecycle.ErrUnsupportedStatus, "%+v", upd)
	}
}

func (s *OrderServiceSuite) TestStatsCountVerifiedRevenueOnly() {
	a := s.placeOrder()
	s.placeOrder()
	_, err := s.update(a.ID, models.AdminOrderUpdate{PaymentStatus: models.PaymentVerified})
	s.Require().NoError(err)

	stats, err := s.env.orders.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, stats.TotalOrders)
	s.Equal(1180.0, stats.TotalRevenue)
	s.Equal(1, stats.PendingPayments)
	s.Equal(1, stats.ByStatus[models.OrderProcessing])
	s.Equal(1, stats.ByStatus[models.OrderPending])
}

func (s *OrderServiceSuite) TestStatusChangesPublishEvents() {
	o := s.shippedOrder()
	evs := s.env.recorder.Events()
	s.Require().Len(evs, 3)
	s.Equal(events.OrderStatusChanged, evs[2].Type)
	s.Equal(models.OrderProcessing, evs[2].PrevStatus)
	s.Equal(models.OrderShipped, evs[2].OrderStatus)
	s.Equal(o.ID, evs[2].OrderID)
	s.Equal("admin-1", evs[2].Actor)
}
