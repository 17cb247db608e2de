package domain

import (
	"fmt"
	"strings"
)

// Role роль пользователя панели; только фильтр отображения, не граница безопасности
type Role string

const (
	RoleCashier  Role = "cashier"
	RoleCook     Role = "cook"
	RoleDelivery Role = "delivery"
	RoleAdmin    Role = "admin"
)

// ParseRole принимает и испанские названия ролей
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CASHIER", "CAJERO":
		return RoleCashier, nil
	case "COOK", "COCINERO", "COCINA":
		return RoleCook, nil
	case "DELIVERY", "REPARTIDOR":
		return RoleDelivery, nil
	case "ADMIN":
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Action действие над заказом, доступное в панели
type Action string

const (
	ActionStartCooking   Action = "start_cooking"
	ActionMarkReady      Action = "mark_ready"
	ActionDeliver        Action = "deliver"
	ActionCancel         Action = "cancel"
	ActionConfirmPayment Action = "confirm_payment"
)

// View что роль видит и может сделать с заказом
type View struct {
	Visible bool     `json:"visible"`
	Actions []Action `json:"actions"`
}

var roleStatuses = map[Role][]OrderStatus{
	RoleCook:     {OrderStatusPending, OrderStatusCooking, OrderStatusPacking, OrderStatusReady},
	RoleDelivery: {OrderStatusReady, OrderStatusDelivered},
}

// VisibleTo сообщает, показывается ли заказ в этом статусе роли
func VisibleTo(role Role, status OrderStatus) bool {
	statuses, ok := roleStatuses[role]
	if !ok {
		// cashier and admin see everything
		return role == RoleCashier || role == RoleAdmin
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// CanDeliver все условия для подтверждения доставки
func CanDeliver(o Order) bool {
	if o.Status != OrderStatusReady || o.Payment.Due() {
		return false
	}
	return o.PackUntil == nil || o.Packed
}

// ViewFor чистая функция (роль, заказ) -> видимость и разрешённые действия
func ViewFor(role Role, o Order) View {
	v := View{Visible: VisibleTo(role, o.Status), Actions: []Action{}}
	if !v.Visible {
		return v
	}
	kitchen := role == RoleCook || role == RoleAdmin
	counter := role == RoleCashier || role == RoleAdmin
	rider := role == RoleDelivery || role == RoleAdmin

	if kitchen && o.Status == OrderStatusPending {
		v.Actions = append(v.Actions, ActionStartCooking)
	}
	if kitchen && o.Status == OrderStatusCooking {
		v.Actions = append(v.Actions, ActionMarkReady)
	}
	if (counter || rider) && !o.Status.IsTerminal() && o.Payment.Due() {
		v.Actions = append(v.Actions, ActionConfirmPayment)
	}
	if rider && CanDeliver(o) {
		v.Actions = append(v.Actions, ActionDeliver)
	}
	if counter && !o.Status.IsTerminal() {
		v.Actions = append(v.Actions, ActionCancel)
	}
	return v
}
