package domain

import "time"

// OrderEvent событие об изменении заказа для уведомлений
type OrderEvent struct {
	Type      string        `json:"type"`
	OrderID   string        `json:"order_id"`
	From      OrderStatus   `json:"from,omitempty"`
	To        OrderStatus   `json:"to,omitempty"`
	Payment   PaymentStatus `json:"payment_status,omitempty"`
	Automatic bool          `json:"automatic,omitempty"`
	At        time.Time     `json:"at"`
}

const (
	EventOrderCreated   = "order.created"
	EventStatusChanged  = "order.status_changed"
	EventPaymentChanged = "order.payment_changed"
	EventOrderRemoved   = "order.removed"
)
