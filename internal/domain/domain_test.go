package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotal(t *testing.T) {
	items := []OrderItem{
		{Name: "Promo Familiar", Quantity: 1, UnitPrice: 14900},
		{Name: "Gyozas", Quantity: 3, UnitPrice: 2500},
	}
	assert.Equal(t, int64(22400), ComputeTotal(items))
	assert.Equal(t, int64(0), ComputeTotal(nil))
}

func TestValidateItems(t *testing.T) {
	require.NoError(t, ValidateItems([]OrderItem{{Name: "Promo", Quantity: 1, UnitPrice: 0}}))
	assert.Error(t, ValidateItems(nil))
	assert.Error(t, ValidateItems([]OrderItem{{Name: "", Quantity: 1, UnitPrice: 10}}))
	assert.Error(t, ValidateItems([]OrderItem{{Name: "Promo", Quantity: 0, UnitPrice: 10}}))
	assert.Error(t, ValidateItems([]OrderItem{{Name: "Promo", Quantity: 1, UnitPrice: -1}}))
}

func TestValidateItems_RejectsOverflowingAmounts(t *testing.T) {
	assert.Error(t, ValidateItems([]OrderItem{{Name: "Promo", Quantity: 1 << 62, UnitPrice: 4}}))
	assert.Error(t, ValidateItems([]OrderItem{{Name: "Promo", Quantity: 1, UnitPrice: MaxUnitPrice + 1}}))

	items := make([]OrderItem, 0, 101)
	for i := 0; i < 101; i++ {
		items = append(items, OrderItem{Name: "Barco", Quantity: MaxItemQuantity, UnitPrice: 10_000_000})
	}
	assert.Error(t, ValidateItems(items))

	ok := []OrderItem{{Name: "Barco", Quantity: MaxItemQuantity, UnitPrice: MaxUnitPrice}}
	require.NoError(t, ValidateItems(ok))
	assert.Equal(t, int64(MaxItemQuantity*MaxUnitPrice), ComputeTotal(ok))
}

func TestNewOrderID(t *testing.T) {
	now := time.Date(2025, 9, 28, 12, 0, 0, 0, time.UTC)
	id := NewOrderID(now)
	assert.Regexp(t, regexp.MustCompile(`^ORD-20250928-[0-9A-F]{8}$`), id)
	assert.NotEqual(t, id, NewOrderID(now))
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderStatusPending, OrderStatusCooking, true},
		{OrderStatusCooking, OrderStatusPacking, true},
		{OrderStatusPacking, OrderStatusReady, true},
		{OrderStatusReady, OrderStatusDelivered, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusCooking, OrderStatusDelivered, false},
		{OrderStatusReady, OrderStatusCooking, false},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusReady, OrderStatusCancelled, true},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
	}
	for _, c := range cases {
		assert.Equalf(t, c.ok, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, OrderStatusPending, NormalizeStatus("CREADO"))
	assert.Equal(t, OrderStatusCooking, NormalizeStatus("COCINA"))
	assert.Equal(t, OrderStatusCooking, NormalizeStatus("EN_PREPARACION"))
	assert.Equal(t, OrderStatusPacking, NormalizeStatus("EMPAQUE"))
	assert.Equal(t, OrderStatusReady, NormalizeStatus("LISTO"))
	assert.Equal(t, OrderStatusReady, NormalizeStatus("RUTA"))
	assert.Equal(t, OrderStatusDelivered, NormalizeStatus("ENTREGADO"))
	assert.Equal(t, OrderStatusCancelled, NormalizeStatus("CANCELADO"))
	assert.Equal(t, OrderStatusReady, NormalizeStatus("ready"))
	assert.Equal(t, OrderStatusPending, NormalizeStatus("whatever"))
	assert.Equal(t, OrderStatusPending, NormalizeStatus(""))
	for _, s := range AllStatuses {
		assert.Equal(t, s, NormalizeStatus(string(s)))
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("CAJERO")
	require.NoError(t, err)
	assert.Equal(t, RoleCashier, r)
	r, err = ParseRole("cook")
	require.NoError(t, err)
	assert.Equal(t, RoleCook, r)
	_, err = ParseRole("chef")
	assert.Error(t, err)
}

func TestViewFor(t *testing.T) {
	pending := Order{Status: OrderStatusPending, Payment: Payment{Status: PaymentStatusPending}}
	v := ViewFor(RoleCook, pending)
	assert.True(t, v.Visible)
	assert.Equal(t, []Action{ActionStartCooking}, v.Actions)

	v = ViewFor(RoleDelivery, pending)
	assert.False(t, v.Visible)
	assert.Empty(t, v.Actions)

	v = ViewFor(RoleCashier, pending)
	assert.True(t, v.Visible)
	assert.ElementsMatch(t, []Action{ActionConfirmPayment, ActionCancel}, v.Actions)

	until := time.Now()
	readyDue := Order{Status: OrderStatusReady, Packed: true, PackUntil: &until, Payment: Payment{Status: PaymentStatusPending}}
	v = ViewFor(RoleDelivery, readyDue)
	assert.True(t, v.Visible)
	assert.Equal(t, []Action{ActionConfirmPayment}, v.Actions)

	readyPaid := readyDue
	readyPaid.Payment.Status = PaymentStatusPaid
	v = ViewFor(RoleDelivery, readyPaid)
	assert.Equal(t, []Action{ActionDeliver}, v.Actions)

	notPacked := readyPaid
	notPacked.Packed = false
	assert.False(t, CanDeliver(notPacked))

	delivered := Order{Status: OrderStatusDelivered, Payment: Payment{Status: PaymentStatusPaid}}
	v = ViewFor(RoleAdmin, delivered)
	assert.True(t, v.Visible)
	assert.Empty(t, v.Actions)
}

func TestPromotionAvailableAt(t *testing.T) {
	now := time.Date(2025, 9, 28, 12, 0, 0, 0, time.UTC)
	from := now.Add(-time.Hour)
	to := now.Add(time.Hour)
	p := Promotion{Active: true, ValidFrom: &from, ValidTo: &to, OriginalPrice: 18900, DiscountPrice: 14900}
	assert.True(t, p.AvailableAt(now))
	assert.False(t, p.AvailableAt(now.Add(2*time.Hour)))
	assert.False(t, p.AvailableAt(now.Add(-2*time.Hour)))
	assert.Equal(t, int64(14900), p.Price())
	p.Active = false
	assert.False(t, p.AvailableAt(now))
}

func TestOrderClone(t *testing.T) {
	until := time.Now()
	o := Order{
		Items:     []OrderItem{{Name: "Promo", Quantity: 1, UnitPrice: 100}},
		PackUntil: &until,
		Delivery:  &Delivery{Destination: &LatLng{Lat: 1, Lng: 2}},
	}
	cp := o.Clone()
	cp.Items[0].Quantity = 5
	cp.Delivery.Destination.Lat = 9
	assert.Equal(t, int64(1), o.Items[0].Quantity)
	assert.Equal(t, 1.0, o.Delivery.Destination.Lat)
}

func TestPaymentNormalization(t *testing.T) {
	assert.Equal(t, PaymentMethodCash, NormalizePaymentMethod("EFECTIVO"))
	assert.Equal(t, PaymentMethodCard, NormalizePaymentMethod("debito"))
	assert.Equal(t, PaymentStatusPaid, NormalizePaymentStatus("PAGADO"))
	assert.Equal(t, PaymentStatusPending, NormalizePaymentStatus("due"))
	assert.True(t, Payment{Status: PaymentStatusPending}.Due())
	assert.False(t, Payment{Status: PaymentStatusPaid}.Due())
}
