package utils

import (
	"html/template"

	"nexusmart/internal/models"
)

type statusCopy struct {
	subject string
	icon    string
	color   template.CSS
	message string
}

var orderStatusCopy = map[models.OrderStatus]statusCopy{
	models.OrderPending: {
		subject: "🧾 Order received - NexusMart",
		icon:    "🧾",
		color:   "#f59e0b",
		message: "We received your order. We will confirm it as soon as your UPI payment is verified.",
	},
	models.OrderProcessing: {
		subject: "✅ Payment verified - NexusMart",
		icon:    "✅",
		color:   "#2563eb",
		message: "Your payment has been verified and we are preparing your parcel.",
	},
	models.OrderShipped: {
		subject: "📦 Your order has shipped - NexusMart",
		icon:    "📦",
		color:   "#7c3aed",
		message: "Your order is on its way.",
	},
	models.OrderDelivered: {
		subject: "🎉 Your order was delivered - NexusMart",
		icon:    "🎉",
		color:   "#16a34a",
		message: "Your order has been delivered. Enjoy!",
	},
	models.OrderCancelled: {
		subject: "❌ Order cancelled - NexusMart",
		icon:    "❌",
		color:   "#dc2626",
		message: "Your order has been cancelled.",
	},
}

var paymentRejectedCopy = statusCopy{
	subject: "⚠️ Payment could not be verified - NexusMart",
	icon:    "⚠️",
	color:   "#dc2626",
	message: "We could not match your UTR to a payment. Reply to this email with your transaction details.",
}

// OrderStatusEmail describes the current state of order for its customer.
// The delivery code is included once the order has shipped.
func OrderStatusEmail(order models.Order) (Email, error) {
	sc, ok := orderStatusCopy[order.OrderStatus]
	if !ok {
		sc = orderStatusCopy[models.OrderPending]
	}
	if order.PaymentInfo.Status == models.PaymentFailed && order.OrderStatus != models.OrderCancelled {
		sc = paymentRejectedCopy
	}

	data := map[string]interface{}{
		"OrderID": order.ID,
		"Status":  string(order.OrderStatus),
		"Icon":    sc.icon,
		"Color":   sc.color,
		"Message": sc.message,
		"Items":   order.Items,
		"Total":   order.TotalPrice,
	}
	if order.OrderStatus == models.OrderShipped {
		data["DeliveryOTP"] = order.DeliveryOTP
	}
	html, err := renderEmail("order_status", "Order update", data)
	return Email{Subject: sc.subject, HTML: html}, err
}
