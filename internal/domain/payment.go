package domain

import "strings"

// PaymentMethod способ оплаты
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodWebpay   PaymentMethod = "webpay"
)

// PaymentStatus статус оплаты; pending означает "к оплате"
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRejected PaymentStatus = "rejected"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Payment информация об оплате заказа
type Payment struct {
	Method    PaymentMethod `json:"method"`
	Status    PaymentStatus `json:"status"`
	Amount    int64         `json:"amount"`
	Reference string        `json:"reference,omitempty"`
}

// Due true, пока оплата не подтверждена
func (p Payment) Due() bool {
	return p.Status == PaymentStatusPending || p.Status == PaymentStatusRejected
}

// NormalizePaymentMethod принимает и старые испанские названия
func NormalizePaymentMethod(s string) PaymentMethod {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EFECTIVO", "CASH":
		return PaymentMethodCash
	case "TRANSFERENCIA", "TRANSFER":
		return PaymentMethodTransfer
	case "TARJETA", "DEBITO", "CREDITO", "CARD":
		return PaymentMethodCard
	case "WEBPAY":
		return PaymentMethodWebpay
	default:
		return PaymentMethodCash
	}
}

// NormalizePaymentStatus: неизвестное значение считается неоплаченным
func NormalizePaymentStatus(s string) PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PAGADO", "PAID":
		return PaymentStatusPaid
	case "RECHAZADO", "REJECTED":
		return PaymentStatusRejected
	case "REEMBOLSADO", "REFUNDED":
		return PaymentStatusRefunded
	default:
		return PaymentStatusPending
	}
}
