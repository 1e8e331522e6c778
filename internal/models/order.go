package models

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentVerified PaymentStatus = "Verified"
	PaymentFailed   PaymentStatus = "Failed"
)

// PaymentMethodUPI is the only method the storefront offers: a manual UPI
// transfer acknowledged by the customer-entered UTR.
const PaymentMethodUPI = "UPI (Demo)"

type OrderItem struct {
	ProductID string  `json:"product"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"qty"`
}

type PaymentInfo struct {
	UTR    string        `json:"utr"`
	Method string        `json:"method"`
	Status PaymentStatus `json:"status"`
}

type Order struct {
	ID            string       `json:"_id"`
	UserID        string       `json:"user"`
	Items         []OrderItem  `json:"orderItems"`
	ShippingInfo  ShippingInfo `json:"shippingInfo"`
	ItemsPrice    float64      `json:"itemsPrice"`
	TaxPrice      float64      `json:"taxPrice"`
	ShippingPrice float64      `json:"shippingPrice"`
	TotalPrice    float64      `json:"totalPrice"`
	OrderStatus   OrderStatus  `json:"orderStatus"`
	PaymentInfo   PaymentInfo  `json:"paymentInfo"`
	DeliveryOTP   string       `json:"deliveryOtp,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	PaidAt        *time.Time   `json:"paidAt,omitempty"`
	DeliveredAt   *time.Time   `json:"deliveredAt,omitempty"`
	CancelledAt   *time.Time   `json:"cancelledAt,omitempty"`
}

// AdminView hides the delivery OTP: admins must collect it from the customer.
func (o Order) AdminView() Order {
	o.DeliveryOTP = ""
	return o
}

// Prices is the frozen price breakdown computed at confirmation time.
type Prices struct {
	ItemsPrice    float64 `json:"itemsPrice"`
	TaxPrice      float64 `json:"taxPrice"`
	ShippingPrice float64 `json:"shippingPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}

type NewOrderRequest struct {
	Items         []OrderItem  `json:"orderItems" binding:"required,min=1"`
	ShippingInfo  ShippingInfo `json:"shippingInfo" binding:"required"`
	ItemsPrice    float64      `json:"itemsPrice"`
	TaxPrice      float64      `json:"taxPrice"`
	ShippingPrice float64      `json:"shippingPrice"`
	TotalPrice    float64      `json:"totalPrice"`
	PaymentInfo   PaymentInfo  `json:"paymentInfo" binding:"required"`
}

func (r NewOrderRequest) Prices() Prices {
	return Prices{
		ItemsPrice:    r.ItemsPrice,
		TaxPrice:      r.TaxPrice,
		ShippingPrice: r.ShippingPrice,
		TotalPrice:    r.TotalPrice,
	}
}

// AdminOrderUpdate is the body of PUT /orders/admin/order/:id. Every field is optional.
type AdminOrderUpdate struct {
	PaymentStatus PaymentStatus `json:"paymentStatus,omitempty"`
	Status        OrderStatus   `json:"status,omitempty"`
	DeliveryOTP   string        `json:"deliveryOtp,omitempty"`
	CancelOTP     string        `json:"cancelOtp,omitempty"`
}

type OrderStats struct {
	TotalOrders     int                 `json:"totalOrders"`
	TotalRevenue    float64             `json:"totalRevenue"`
	PendingPayments int                 `json:"pendingPayments"`
	ByStatus        map[OrderStatus]int `json:"byStatus"`
}
