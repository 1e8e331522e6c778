// Package events publishes order lifecycle events.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"nexusmart/internal/models"
)

type EventType string

const (
	OrderCreated       EventType = "order.created"
	OrderStatusChanged EventType = "order.status_changed"
)

type OrderEvent struct {
	EventID       string               `json:"event_id"`
	Type          EventType            `json:"type"`
	OrderID       string               `json:"order_id"`
	UserID        string               `json:"user_id"`
	OrderStatus   models.OrderStatus   `json:"order_status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	PrevStatus    models.OrderStatus   `json:"prev_status,omitempty"`
	TotalPrice    float64              `json:"total_price"`
	Actor         string               `json:"actor,omitempty"`
	Timestamp     time.Time            `json:"timestamp"`
}

// NewOrderEvent snapshots o. prev is empty for creations.
func NewOrderEvent(t EventType, o models.Order, prev models.OrderStatus, actor string, now time.Time) OrderEvent {
	return OrderEvent{
		EventID:       uuid.NewString(),
		Type:          t,
		OrderID:       o.ID,
		UserID:        o.UserID,
		OrderStatus:   o.OrderStatus,
		PaymentStatus: o.PaymentInfo.Status,
		PrevStatus:    prev,
		TotalPrice:    o.TotalPrice,
		Actor:         actor,
		Timestamp:     now,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (NopPublisher) Close() error                              { return nil }
