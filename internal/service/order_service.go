package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nexusmart/internal/cache"
	"nexusmart/internal/events"
	"nexusmart/internal/lifecycle"
	"nexusmart/internal/metrics"
	"nexusmart/internal/models"
	"nexusmart/internal/pricing"
	"nexusmart/internal/repository"
	"nexusmart/internal/utils"
)

const notifyTimeout = 30 * time.Second

type OrderDeps struct {
	Store      *repository.Store
	Cache      *cache.Cache
	Mailer     utils.Mailer
	Publisher  events.Publisher
	Metrics    *metrics.Metrics
	AdminEmail string
	Logger     *zap.Logger
}

// OrderService applies lifecycle transitions to stored orders. Writes are
// last-write-wins.
type OrderService struct {
	orders     repository.OrderRepository
	products   repository.ProductRepository
	users      repository.UserRepository
	cache      *cache.Cache
	mailer     utils.Mailer
	publisher  events.Publisher
	metrics    *metrics.Metrics
	adminEmail string
	logger     *zap.Logger

	now      func() time.Time
	newOTP   func() (string, error)
	runAsync func(func())
}

func NewOrderService(d OrderDeps) *OrderService {
	return &OrderService{
		orders:     d.Store.Orders,
		products:   d.Store.Products,
		users:      d.Store.Users,
		cache:      d.Cache,
		mailer:     d.Mailer,
		publisher:  d.Publisher,
		metrics:    d.Metrics,
		adminEmail: d.AdminEmail,
		logger:     d.Logger,
		now:        time.Now,
		newOTP:     utils.GenerateOTP,
		runAsync:   func(f func()) { go f() },
	}
}

// Create validates a checkout submission and stores it as a Pending order.
// Item names, images and prices come from the catalog; the submitted totals
// must agree with the recomputed ones.
func (s *OrderService) Create(ctx context.Context, userID string, req models.NewOrderRequest) (*models.Order, error) {
	shipping := req.ShippingInfo
	if strings.TrimSpace(shipping.Country) == "" {
		shipping.Country = models.DefaultCountry
	}
	if missing := shipping.MissingFields(); len(missing) > 0 {
		for i := range missing {
			missing[i] = "shippingInfo." + missing[i]
		}
		return nil, &ValidationError{Fields: missing}
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		p, err := s.products.Get(ctx, it.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.Wrap(ErrUnknownProduct, it.ProductID)
		}
		if err != nil {
			return nil, errors.Wrap(err, "load product")
		}
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.FirstImage(),
			Quantity:  it.Quantity,
		})
	}

	prices := pricing.Compute(items)
	if !pricing.Matches(req.Prices(), prices) {
		s.reject("create", ErrPriceMismatch)
		return nil, ErrPriceMismatch
	}

	order := &models.Order{
		UserID:        userID,
		Items:         items,
		ShippingInfo:  shipping,
		ItemsPrice:    prices.ItemsPrice,
		TaxPrice:      prices.TaxPrice,
		ShippingPrice: prices.ShippingPrice,
		TotalPrice:    prices.TotalPrice,
		PaymentInfo: models.PaymentInfo{
			UTR:    strings.TrimSpace(req.PaymentInfo.UTR),
			Method: req.PaymentInfo.Method,
		},
	}
	now := s.now()
	if err := lifecycle.Submit(order, now); err != nil {
		s.reject("create", err)
		return nil, err
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, errors.Wrap(err, "store order")
	}

	s.metrics.OrdersCreated.Inc()
	s.logger.Info("🛒 order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Float64("total", order.TotalPrice))
	s.publish(ctx, events.NewOrderEvent(events.OrderCreated, *order, "", userID, now))
	s.notifyCustomer(*order)
	return order, nil
}

// ListMine returns the customer's orders, newest first, including the
// delivery OTP of shipped orders.
func (s *OrderService) ListMine(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// ListAll returns every order in admin form, optionally restricted to tab.
func (s *OrderService) ListAll(ctx context.Context, tab lifecycle.Tab) ([]models.Order, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	out := make([]models.Order, 0, len(orders))
	for i := range orders {
		if tab != "" && lifecycle.TabOf(&orders[i]) != tab {
			continue
		}
		out = append(out, orders[i].AdminView())
	}
	return out, nil
}

// Get returns the order for its owner or an admin. Admins get the admin view.
func (s *OrderService) Get(ctx context.Context, id, userID string, admin bool) (*models.Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if admin {
		v := o.AdminView()
		return &v, nil
	}
	if o.UserID != userID {
		return nil, ErrNotOwner
	}
	return o, nil
}

func (s *OrderService) Stats(ctx context.Context) (*models.OrderStats, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	stats := &models.OrderStats{
		TotalOrders:  len(orders),
		TotalRevenue: pricing.Revenue(orders),
		ByStatus:     make(map[models.OrderStatus]int),
	}
	for _, o := range orders {
		stats.ByStatus[o.OrderStatus]++
		if o.PaymentInfo.Status == models.PaymentPending && !lifecycle.IsTerminal(o.OrderStatus) {
			stats.PendingPayments++
		}
	}
	return stats, nil
}

// CancelByCustomer cancels the caller's own Pending or Processing order.
// Shipped orders are refused with lifecycle.ErrShippedCancel.
func (s *OrderService) CancelByCustomer(ctx context.Context, userID, orderID string) (*models.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrNotOwner
	}
	prev := o.OrderStatus
	now := s.now()
	if err := lifecycle.CancelByCustomer(o, now); err != nil {
		s.reject("cancel", err)
		return nil, err
	}
	if err := s.commit(ctx, o, prev, "cancel", userID, now); err != nil {
		return nil, err
	}
	return o, nil
}

// AdminUpdate interprets the admin dashboard's update body:
//
//	{paymentStatus: Verified[, status: Processing]}  verify payment
//	{paymentStatus: Failed}                          reject payment
//	{status: Shipped}                                ship, generating the delivery OTP
//	{status: Delivered, deliveryOtp}                 deliver
//	{status: Cancelled[, cancelOtp]}                 cancel
func (s *OrderService) AdminUpdate(ctx context.Context, orderID string, upd models.AdminOrderUpdate, actor string) (*models.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	prev := o.OrderStatus
	now := s.now()

	var action string
	switch {
	case upd.PaymentStatus == models.PaymentVerified:
		action = "verify_payment"
		if upd.Status != "" && upd.Status != models.OrderProcessing {
			err = lifecycle.ErrUnsupportedStatus
		} else {
			err = lifecycle.VerifyPayment(o, now)
		}
	case upd.PaymentStatus == models.PaymentFailed:
		action = "reject_payment"
		if upd.Status != "" {
			err = lifecycle.ErrUnsupportedStatus
		} else {
			err = lifecycle.RejectPayment(o)
		}
	case upd.PaymentStatus != "":
		action, err = "payment", lifecycle.ErrUnsupportedStatus
	case upd.Status == models.OrderShipped:
		action = "ship"
		err = s.ship(o)
	case upd.Status == models.OrderDelivered:
		action = "deliver"
		err = lifecycle.Deliver(o, strings.TrimSpace(upd.DeliveryOTP), now)
	case upd.Status == models.OrderCancelled:
		if err := s.cancel(ctx, o, strings.TrimSpace(upd.CancelOTP), actor); err != nil {
			return nil, err
		}
		v := o.AdminView()
		return &v, nil
	default:
		action, err = "update", lifecycle.ErrUnsupportedStatus
	}
	if err != nil {
		s.reject(action, err)
		return nil, err
	}
	if err := s.commit(ctx, o, prev, action, actor, now); err != nil {
		return nil, err
	}
	v := o.AdminView()
	return &v, nil
}

// RequestCancelOTP issues the one-time code that authorises cancelling a
// shipped order and emails it to the admin address.
func (s *OrderService) RequestCancelOTP(ctx context.Context, orderID string) error {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if !lifecycle.Cancellable(o) {
		return lifecycle.ErrTerminal
	}
	if !lifecycle.NeedsCancelOTP(o) {
		return lifecycle.ErrCancelOTPNotRequired
	}
	code, err := s.newOTP()
	if err != nil {
		return err
	}
	if err := s.cache.SaveOTP(ctx, cache.OTPCancel, o.ID, code, cache.CancelOTPTTL); err != nil {
		return errors.Wrap(err, "store cancellation otp")
	}
	email, err := utils.CancelOTPEmail(o.ID, code)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, s.adminEmail, email.Subject, email.HTML); err != nil {
		return errors.Wrap(err, "email cancellation otp")
	}
	s.logger.Info("🔐 cancellation OTP issued", zap.String("order_id", o.ID))
	return nil
}

func (s *OrderService) ship(o *models.Order) error {
	if err := lifecycle.CanShip(o); err != nil {
		return err
	}
	code, err := s.newOTP()
	if err != nil {
		return err
	}
	return lifecycle.Ship(o, code)
}

// cancel is the admin cancellation path. Shipped orders need a cancellation
// OTP. The code is only deleted once the cancelled order is stored, so a
// failed write can be retried with the same code.
func (s *OrderService) cancel(ctx context.Context, o *models.Order, otp, actor string) error {
	prev := o.OrderStatus
	now := s.now()

	verified := false
	if lifecycle.Cancellable(o) && lifecycle.NeedsCancelOTP(o) {
		if otp == "" {
			s.reject("cancel", lifecycle.ErrCancelOTPRequired)
			return lifecycle.ErrCancelOTPRequired
		}
		if !pricing.ValidOTP(otp) {
			s.reject("cancel", ErrInvalidCancelOTP)
			return ErrInvalidCancelOTP
		}
		ok, err := s.cache.CheckOTP(ctx, cache.OTPCancel, o.ID, otp)
		if err != nil {
			return errors.Wrap(err, "check cancellation otp")
		}
		if !ok {
			s.reject("cancel", ErrInvalidCancelOTP)
			return ErrInvalidCancelOTP
		}
		verified = true
	}
	if err := lifecycle.Cancel(o, verified, now); err != nil {
		s.reject("cancel", err)
		return err
	}
	if err := s.commit(ctx, o, prev, "cancel", actor, now); err != nil {
		return err
	}
	if verified {
		if err := s.cache.DeleteOTP(ctx, cache.OTPCancel, o.ID); err != nil {
			s.logger.Warn("⚠️ failed to drop used cancellation OTP", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *OrderService) commit(ctx context.Context, o *models.Order, prev models.OrderStatus, action, actor string, now time.Time) error {
	if err := s.orders.Update(ctx, o); err != nil {
		return errors.Wrap(err, "store order")
	}
	s.metrics.Transitions.WithLabelValues(action).Inc()
	s.logger.Info("📦 order updated",
		zap.String("order_id", o.ID),
		zap.String("action", action),
		zap.String("from", string(prev)),
		zap.String("to", string(o.OrderStatus)),
		zap.String("payment", string(o.PaymentInfo.Status)),
		zap.String("actor", actor))
	s.publish(ctx, events.NewOrderEvent(events.OrderStatusChanged, *o, prev, actor, now))
	s.notifyCustomer(*o)
	return nil
}

var rejectReasons = map[error]string{
	lifecycle.ErrInvalidUTR:           "invalid_utr",
	lifecycle.ErrTerminal:             "terminal",
	lifecycle.ErrPaymentNotPending:    "payment_not_pending",
	lifecycle.ErrPaymentNotVerified:   "payment_not_verified",
	lifecycle.ErrNotProcessing:        "not_processing",
	lifecycle.ErrNotShipped:           "not_shipped",
	lifecycle.ErrDeliveryOTPRequired:  "delivery_otp_required",
	lifecycle.ErrInvalidDeliveryOTP:   "invalid_delivery_otp",
	lifecycle.ErrCancelOTPRequired:    "cancel_otp_required",
	lifecycle.ErrCancelOTPNotRequired: "cancel_otp_not_required",
	lifecycle.ErrUnsupportedStatus:    "unsupported_status",
	ErrInvalidCancelOTP:               "invalid_cancel_otp",
	ErrPriceMismatch:                  "price_mismatch",
}

func (s *OrderService) reject(action string, err error) {
	reason, ok := rejectReasons[errors.Cause(err)]
	if !ok {
		reason = "other"
	}
	s.metrics.RejectedTransition.WithLabelValues(action, reason).Inc()
}

func (s *OrderService) publish(ctx context.Context, ev events.OrderEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		// The order is already stored; consumers can catch up from the database.
		s.logger.Error("❌ failed to publish order event",
			zap.String("order_id", ev.OrderID),
			zap.String("type", string(ev.Type)),
			zap.Error(err))
	}
}

// notifyCustomer emails the order's owner in the background.
func (s *OrderService) notifyCustomer(o models.Order) {
	s.runAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		user, err := s.users.GetByID(ctx, o.UserID)
		if err != nil {
			s.logger.Warn("⚠️ no recipient for order email", zap.String("order_id", o.ID), zap.Error(err))
			return
		}
		email, err := utils.OrderStatusEmail(o)
		if err != nil {
			s.logger.Error("❌ render order email", zap.Error(err))
			return
		}
		if err := s.mailer.Send(ctx, user.Email, email.Subject, email.HTML); err != nil {
			s.logger.Error("❌ send order email", zap.String("order_id", o.ID), zap.Error(err))
		}
	})
}
