package domain

import "strings"

// OrderStatus тип статуса заказа
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCooking   OrderStatus = "cooking"
	OrderStatusPacking   OrderStatus = "packing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// AllStatuses канонический порядок статусов
var AllStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusCooking,
	OrderStatusPacking,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid true для статусов из канонического набора
func (s OrderStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal delivered и cancelled не допускают дальнейших переходов
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// forward transitions; cancellation is handled separately
var allowedTransitions = map[OrderStatus]OrderStatus{
	OrderStatusPending: OrderStatusCooking,
	OrderStatusCooking: OrderStatusPacking,
	OrderStatusPacking: OrderStatusReady,
	OrderStatusReady:   OrderStatusDelivered,
}

// CanTransition проверяет переход from -> to
func CanTransition(from, to OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	next, ok := allowedTransitions[from]
	return ok && next == to
}

var legacyStatuses = map[string]OrderStatus{
	"CREADO":         OrderStatusPending,
	"CONFIRMADO":     OrderStatusPending,
	"PENDING":        OrderStatusPending,
	"COCINA":         OrderStatusCooking,
	"EN_PREPARACION": OrderStatusCooking,
	"IN_KITCHEN":     OrderStatusCooking,
	"COOKING":        OrderStatusCooking,
	"EMPAQUE":        OrderStatusPacking,
	"LISTO_EMBALAJE": OrderStatusPacking,
	"PACKING":        OrderStatusPacking,
	"LISTO":          OrderStatusReady,
	"READY":          OrderStatusReady,
	"RUTA":           OrderStatusReady,
	"EN_REPARTO":     OrderStatusReady,
	"ON_ROUTE":       OrderStatusReady,
	"ENTREGADO":      OrderStatusDelivered,
	"DELIVERED":      OrderStatusDelivered,
	"CANCELADO":      OrderStatusCancelled,
	"CANCELLED":      OrderStatusCancelled,
}

// NormalizeStatus приводит старые значения статуса к каноническому набору.
// Неизвестные значения становятся pending.
func NormalizeStatus(s string) OrderStatus {
	key := strings.ToUpper(strings.TrimSpace(s))
	if st, ok := legacyStatuses[key]; ok {
		return st
	}
	return OrderStatusPending
}
