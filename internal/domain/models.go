package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderItem позиция в заказе
type OrderItem struct {
	SKU       string `json:"sku,omitempty"`
	Name      string `json:"name"`
	Quantity  int64  `json:"qty"`
	UnitPrice int64  `json:"unit_price"` // CLP
}

// Customer клиент доставки
type Customer struct {
	ID         string  `json:"id,omitempty"`
	Name       string  `json:"name"`
	Phone      string  `json:"phone,omitempty"`
	Email      string  `json:"email,omitempty"`
	Address    Address `json:"address"`
	References string  `json:"references,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// Delivery метаданные доставки
type Delivery struct {
	Destination     *LatLng  `json:"destination,omitempty"`
	DistanceMeters  float64  `json:"distance_meters,omitempty"`
	DurationSeconds float64  `json:"duration_seconds,omitempty"`
	ETAMinutes      int      `json:"eta_minutes,omitempty"`
	Route           []LatLng `json:"route,omitempty"`
}

// Order сущность заказа
type Order struct {
	ID        string      `json:"id"`
	Customer  Customer    `json:"customer"`
	Items     []OrderItem `json:"items"`
	Total     int64       `json:"total"`
	Status    OrderStatus `json:"status"`
	Packed    bool        `json:"packed"`
	PackUntil *time.Time  `json:"pack_until,omitempty"`
	Payment   Payment     `json:"payment"`
	Delivery  *Delivery   `json:"delivery,omitempty"`
	Notes     string      `json:"notes,omitempty"`
	CreatedBy string      `json:"created_by,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Promotion акция из меню
type Promotion struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Items           []string   `json:"items,omitempty"`
	OriginalPrice   int64      `json:"original_price"`
	DiscountPrice   int64      `json:"discount_price"`
	DiscountPercent int        `json:"discount_percent,omitempty"`
	Popular         bool       `json:"popular,omitempty"`
	CookingMinutes  int        `json:"cooking_minutes,omitempty"`
	Active          bool       `json:"active"`
	ValidFrom       *time.Time `json:"valid_from,omitempty"`
	ValidTo         *time.Time `json:"valid_to,omitempty"`
}

// AvailableAt сообщает, можно ли продавать акцию в момент t
func (p Promotion) AvailableAt(t time.Time) bool {
	if !p.Active {
		return false
	}
	if p.ValidFrom != nil && t.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidTo != nil && t.After(*p.ValidTo) {
		return false
	}
	return true
}

// Price цена продажи: со скидкой, если она задана
func (p Promotion) Price() int64 {
	if p.DiscountPrice > 0 {
		return p.DiscountPrice
	}
	return p.OriginalPrice
}

// ComputeTotal сумма qty * unit_price по всем позициям
func ComputeTotal(items []OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Quantity * it.UnitPrice
	}
	return total
}

// Limits keep qty * unit_price and the order total far from int64 overflow
const (
	MaxItemQuantity = 1_000
	MaxUnitPrice    = 100_000_000
	MaxOrderTotal   = 1_000_000_000_000
)

// ValidateItems проверяет позиции заказа
func ValidateItems(items []OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("order has no items")
	}
	var total int64
	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("item %d: empty name", i)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("item %d: quantity must be >= 1", i)
		}
		if it.Quantity > MaxItemQuantity {
			return fmt.Errorf("item %d: quantity must be <= %d", i, MaxItemQuantity)
		}
		if it.UnitPrice < 0 {
			return fmt.Errorf("item %d: unit price must be >= 0", i)
		}
		if it.UnitPrice > MaxUnitPrice {
			return fmt.Errorf("item %d: unit price must be <= %d", i, MaxUnitPrice)
		}
		total += it.Quantity * it.UnitPrice
		if total > MaxOrderTotal {
			return fmt.Errorf("order total exceeds %d", MaxOrderTotal)
		}
	}
	return nil
}

// NewOrderID генерирует идентификатор вида ORD-YYYYMMDD-XXXXXXXX
func NewOrderID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

// NewID короткий идентификатор для клиентов и акций
func NewID() string {
	return uuid.NewString()
}

// Clone глубокая копия заказа, чтобы наружу не утекали ссылки на внутреннее состояние
func (o Order) Clone() Order {
	cp := o
	cp.Items = append([]OrderItem(nil), o.Items...)
	if o.PackUntil != nil {
		t := *o.PackUntil
		cp.PackUntil = &t
	}
	if o.Delivery != nil {
		d := *o.Delivery
		if o.Delivery.Destination != nil {
			ll := *o.Delivery.Destination
			d.Destination = &ll
		}
		d.Route = append([]LatLng(nil), o.Delivery.Route...)
		cp.Delivery = &d
	}
	if o.Customer.Address.Location != nil {
		ll := *o.Customer.Address.Location
		cp.Customer.Address.Location = &ll
	}
	return cp
}
