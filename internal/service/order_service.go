package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"sushikoi/internal/domain"
	"sushikoi/internal/format"
	"sushikoi/internal/geo"
	"sushikoi/internal/logging"
	"sushikoi/internal/notify"
	"sushikoi/internal/repository"
)

var (
	ErrInvalidState = errors.New("invalid state")
	ErrPaymentDue   = errors.New("payment not confirmed")
	ErrNotPacked    = errors.New("order still packing")
)

// DefaultPackingDuration окно упаковки
const DefaultPackingDuration = 90 * time.Second

// RoutePlanner считает маршрут доставки
type RoutePlanner interface {
	Route(ctx context.Context, from, to domain.LatLng) (*geo.Route, error)
}

// OrderOptions зависимости OrderService; нулевые значения заменяются дефолтами
type OrderOptions struct {
	PackingDuration time.Duration
	Origin          domain.LatLng
	Router          RoutePlanner
	Notifier        notify.Notifier
	Log             *logging.Logger
	Now             func() time.Time
}

// OrderService владеет списком заказов и таймерами упаковки.
// Все изменения проходят через его методы под одним мьютексом.
type OrderService struct {
	col      *repository.Collections
	router   RoutePlanner
	notifier notify.Notifier
	log      *logging.Logger
	now      func() time.Time
	packing  time.Duration
	origin   domain.LatLng

	mu     sync.Mutex
	orders []domain.Order // newest first
	timers map[string]time.Time
}

func NewOrderService(col *repository.Collections, opts OrderOptions) *OrderService {
	s := &OrderService{
		col:      col,
		router:   opts.Router,
		notifier: opts.Notifier,
		log:      opts.Log,
		now:      opts.Now,
		packing:  opts.PackingDuration,
		origin:   opts.Origin,
		orders:   []domain.Order{},
		timers:   map[string]time.Time{},
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.log == nil {
		s.log = logging.NopLogger()
	}
	s.log = s.log.WithComponent("orders")
	if s.now == nil {
		s.now = time.Now
	}
	if s.packing <= 0 {
		s.packing = DefaultPackingDuration
	}
	return s
}

// OrderView заказ глазами конкретной роли
type OrderView struct {
	domain.Order
	Actions          []domain.Action `json:"actions"`
	PackingRemaining int             `json:"packing_remaining_seconds"`
	PackingCountdown string          `json:"packing_countdown,omitempty"`
}

// OrderPatch частичное обновление заказа; nil поля не трогаются
type OrderPatch struct {
	Customer      *domain.Customer      `json:"customer,omitempty"`
	Notes         *string               `json:"notes,omitempty"`
	PaymentMethod *domain.PaymentMethod `json:"payment_method,omitempty"`
	Destination   *domain.LatLng        `json:"destination,omitempty"`
}

// Load читает заказы и таймеры из хранилища и сверяет их между собой
func (s *OrderService) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = s.col.LoadOrders(ctx)
	s.timers = s.col.LoadTimers(ctx)
	if s.reconcile() {
		s.persist(ctx)
	}
	s.log.Info("orders loaded", "orders", len(s.orders), "packing", len(s.timers))
}

// reconcile restores the timer/packing invariant after a load and reports
// whether anything changed.
func (s *OrderService) reconcile() bool {
	changed := false
	packing := make(map[string]bool)
	for i := range s.orders {
		o := &s.orders[i]
		if o.Status != domain.OrderStatusPacking {
			if o.PackUntil != nil {
				o.PackUntil = nil
				changed = true
			}
			continue
		}
		packing[o.ID] = true
		until, ok := s.timers[o.ID]
		if !ok {
			until = o.UpdatedAt.Add(s.packing)
			s.timers[o.ID] = until
			changed = true
		}
		if o.PackUntil == nil || !o.PackUntil.Equal(until) {
			t := until
			o.PackUntil = &t
			changed = true
		}
	}
	for id := range s.timers {
		if !packing[id] {
			delete(s.timers, id)
			changed = true
		}
	}
	return changed
}

// CreateOrder принимает черновик заказа от кассы
func (s *OrderService) CreateOrder(ctx context.Context, draft domain.Order) (*domain.Order, error) {
	if err := domain.ValidateItems(draft.Items); err != nil {
		return nil, errors.Join(ErrInvalidInput, err)
	}
	now := s.now()
	o := draft.Clone()
	o.ID = domain.NewOrderID(now)
	o.Total = domain.ComputeTotal(o.Items)
	o.Status = domain.OrderStatusPending
	o.Packed = false
	o.PackUntil = nil
	o.Payment.Method = domain.NormalizePaymentMethod(string(o.Payment.Method))
	if o.Payment.Status != domain.PaymentStatusPaid {
		o.Payment.Status = domain.PaymentStatusPending
	}
	if o.Payment.Amount == 0 {
		o.Payment.Amount = o.Total
	}
	if o.Delivery != nil && o.Delivery.Destination == nil {
		o.Delivery = nil
	}
	if o.Delivery == nil && o.Customer.Address.Location != nil {
		ll := *o.Customer.Address.Location
		o.Delivery = &domain.Delivery{Destination: &ll}
	}
	o.CreatedAt = now
	o.UpdatedAt = now

	s.mu.Lock()
	s.orders = append([]domain.Order{o}, s.orders...)
	s.persist(ctx)
	s.mu.Unlock()

	s.log.Info("order created", "order_id", o.ID, "total", o.Total, "items", len(o.Items))
	s.emit(ctx, domain.OrderEvent{Type: domain.EventOrderCreated, OrderID: o.ID, To: o.Status, Payment: o.Payment.Status, At: now})

	if o.Delivery != nil && s.router != nil {
		if planned, err := s.PlanRoute(ctx, o.ID); err == nil {
			return planned, nil
		}
	}
	out := o.Clone()
	return &out, nil
}

// GetOrder возвращает копию заказа
func (s *OrderService) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	o := s.orders[i].Clone()
	return &o, nil
}

// GetOrderView возвращает заказ с действиями роли и остатком упаковки
func (s *OrderService) GetOrderView(_ context.Context, id string, role domain.Role) (*OrderView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	o := s.orders[i]
	v := s.viewOf(o.Clone(), domain.ViewFor(role, o).Actions, s.now())
	return &v, nil
}

// View decorates an order returned by a mutation the same way reads are
func (s *OrderService) View(o domain.Order, role domain.Role) OrderView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewOf(o, domain.ViewFor(role, o).Actions, s.now())
}

// ListOrders заказы, видимые роли, с доступными ей действиями
func (s *OrderService) ListOrders(_ context.Context, role domain.Role) []OrderView {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := make([]OrderView, 0, len(s.orders))
	for _, o := range s.orders {
		v := domain.ViewFor(role, o)
		if !v.Visible {
			continue
		}
		out = append(out, s.viewOf(o.Clone(), v.Actions, now))
	}
	return out
}

// viewOf must be called with mu held
func (s *OrderService) viewOf(o domain.Order, actions []domain.Action, now time.Time) OrderView {
	if actions == nil {
		actions = []domain.Action{}
	}
	v := OrderView{Order: o, Actions: actions}
	if _, ok := s.timers[o.ID]; ok {
		v.PackingRemaining = s.remaining(o.ID, now)
		v.PackingCountdown = format.Countdown(v.PackingRemaining)
	}
	return v
}

// UpdateItems заменяет позиции и пересчитывает сумму
func (s *OrderService) UpdateItems(ctx context.Context, id string, items []domain.OrderItem) (*domain.Order, error) {
	if err := domain.ValidateItems(items); err != nil {
		return nil, errors.Join(ErrInvalidInput, err)
	}
	return s.mutate(ctx, id, func(o *domain.Order) error {
		if o.Status.IsTerminal() {
			return ErrInvalidState
		}
		o.Items = append([]domain.OrderItem(nil), items...)
		o.Total = domain.ComputeTotal(o.Items)
		if o.Payment.Status != domain.PaymentStatusPaid {
			o.Payment.Amount = o.Total
		}
		return nil
	})
}

// UpdateOrder применяет патч к данным клиента, заметкам и точке доставки
func (s *OrderService) UpdateOrder(ctx context.Context, id string, p OrderPatch) (*domain.Order, error) {
	replan := false
	o, err := s.mutate(ctx, id, func(o *domain.Order) error {
		if o.Status.IsTerminal() {
			return ErrInvalidState
		}
		if p.Customer != nil {
			o.Customer = *p.Customer
		}
		if p.Notes != nil {
			o.Notes = *p.Notes
		}
		if p.PaymentMethod != nil {
			o.Payment.Method = domain.NormalizePaymentMethod(string(*p.PaymentMethod))
		}
		if p.Destination != nil {
			ll := *p.Destination
			o.Delivery = &domain.Delivery{Destination: &ll}
			replan = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if replan && s.router != nil {
		if planned, err := s.PlanRoute(ctx, id); err == nil {
			return planned, nil
		}
	}
	return o, nil
}

// PlanRoute считает маршрут от ресторана до точки доставки заказа.
// Если сервис маршрутов недоступен, сохраняется прямая линия.
func (s *OrderService) PlanRoute(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	if s.orders[i].Delivery == nil || s.orders[i].Delivery.Destination == nil {
		s.mu.Unlock()
		return nil, ErrInvalidInput
	}
	dest := *s.orders[i].Delivery.Destination
	s.mu.Unlock()

	var route *geo.Route
	if s.router != nil {
		r, err := s.router.Route(ctx, s.origin, dest)
		if err != nil {
			s.log.Warn("route lookup failed", "order_id", id, "error", err)
		}
		route = r
	}
	if route == nil {
		route = geo.StraightLine(s.origin, dest)
	}

	return s.mutate(ctx, id, func(o *domain.Order) error {
		// destination moved while we were waiting
		if o.Delivery == nil || o.Delivery.Destination == nil || *o.Delivery.Destination != dest {
			return ErrInvalidState
		}
		o.Delivery.DistanceMeters = route.DistanceMeters
		o.Delivery.DurationSeconds = route.DurationSeconds
		o.Delivery.ETAMinutes = route.ETAMinutes()
		o.Delivery.Route = append([]domain.LatLng(nil), route.Points...)
		return nil
	})
}

// StartCooking pending -> cooking
func (s *OrderService) StartCooking(ctx context.Context, id string) (*domain.Order, error) {
	return s.transition(ctx, id, domain.OrderStatusCooking, nil)
}

// MarkReady cooking -> packing и запуск таймера упаковки
func (s *OrderService) MarkReady(ctx context.Context, id string) (*domain.Order, error) {
	return s.transition(ctx, id, domain.OrderStatusPacking, func(o *domain.Order) {
		until, ok := s.timers[o.ID]
		if !ok {
			until = s.now().Add(s.packing)
			s.timers[o.ID] = until
		}
		o.PackUntil = &until
		o.Packed = false
	})
}

// CancelPacking снимает таймер, заказ возвращается на кухню
func (s *OrderService) CancelPacking(ctx context.Context, id string) (*domain.Order, error) {
	var ev domain.OrderEvent
	o, err := s.mutate(ctx, id, func(o *domain.Order) error {
		if o.Status != domain.OrderStatusPacking {
			return ErrInvalidState
		}
		delete(s.timers, o.ID)
		ev = domain.OrderEvent{Type: domain.EventStatusChanged, OrderID: o.ID, From: o.Status, To: domain.OrderStatusCooking}
		o.Status = domain.OrderStatusCooking
		o.PackUntil = nil
		o.Packed = false
		return nil
	})
	if err != nil {
		return nil, err
	}
	ev.At = o.UpdatedAt
	s.emit(ctx, ev)
	return o, nil
}

// MarkDelivered ready -> delivered, только после оплаты и упаковки
func (s *OrderService) MarkDelivered(ctx context.Context, id string) (*domain.Order, error) {
	return s.transition(ctx, id, domain.OrderStatusDelivered, nil)
}

// Cancel отменяет заказ из любого незавершённого статуса
func (s *OrderService) Cancel(ctx context.Context, id string) (*domain.Order, error) {
	return s.transition(ctx, id, domain.OrderStatusCancelled, func(o *domain.Order) {
		delete(s.timers, o.ID)
		o.PackUntil = nil
	})
}

// ConfirmPayment due -> paid; повторное подтверждение ничего не меняет
func (s *OrderService) ConfirmPayment(ctx context.Context, id, reference string) (*domain.Order, error) {
	return s.payment(ctx, id, func(o *domain.Order) (bool, error) {
		if o.Status.IsTerminal() {
			return false, ErrInvalidState
		}
		switch o.Payment.Status {
		case domain.PaymentStatusPaid:
			return false, nil
		case domain.PaymentStatusPending, domain.PaymentStatusRejected:
			o.Payment.Status = domain.PaymentStatusPaid
			o.Payment.Amount = o.Total
			if reference != "" {
				o.Payment.Reference = reference
			}
			return true, nil
		default:
			return false, ErrInvalidState
		}
	})
}

// RejectPayment pending -> rejected (например, не прошла транзакция)
func (s *OrderService) RejectPayment(ctx context.Context, id string) (*domain.Order, error) {
	return s.payment(ctx, id, func(o *domain.Order) (bool, error) {
		if o.Status.IsTerminal() || o.Payment.Status != domain.PaymentStatusPending {
			return false, ErrInvalidState
		}
		o.Payment.Status = domain.PaymentStatusRejected
		return true, nil
	})
}

// RefundPayment paid -> refunded, только для отменённых заказов
func (s *OrderService) RefundPayment(ctx context.Context, id string) (*domain.Order, error) {
	return s.payment(ctx, id, func(o *domain.Order) (bool, error) {
		if o.Status != domain.OrderStatusCancelled || o.Payment.Status != domain.PaymentStatusPaid {
			return false, ErrInvalidState
		}
		o.Payment.Status = domain.PaymentStatusRefunded
		return true, nil
	})
}

// RemoveOrder удаляет заказ вместе с таймером
func (s *OrderService) RemoveOrder(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return repository.ErrNotFound
	}
	s.orders = append(s.orders[:i], s.orders[i+1:]...)
	delete(s.timers, id)
	s.persist(ctx)
	s.mu.Unlock()

	s.emit(ctx, domain.OrderEvent{Type: domain.EventOrderRemoved, OrderID: id, At: s.now()})
	return nil
}

// ClearAll удаляет все заказы и таймеры
func (s *OrderService) ClearAll(ctx context.Context) int {
	s.mu.Lock()
	n := len(s.orders)
	s.orders = []domain.Order{}
	s.timers = map[string]time.Time{}
	s.persist(ctx)
	s.mu.Unlock()

	s.log.Info("orders cleared", "count", n)
	return n
}

// AdvanceTimers переводит заказы с истёкшим таймером в ready.
// Возвращает id переведённых заказов.
func (s *OrderService) AdvanceTimers(ctx context.Context, now time.Time) []string {
	s.mu.Lock()
	orders, timers, advanced := AdvancePackingTimers(s.orders, s.timers, now)
	if len(advanced) == 0 && len(timers) == len(s.timers) {
		s.mu.Unlock()
		return nil
	}
	s.orders, s.timers = orders, timers
	s.persist(ctx)
	s.mu.Unlock()

	for _, id := range advanced {
		s.log.Info("packing finished", "order_id", id)
		s.emit(ctx, domain.OrderEvent{
			Type:      domain.EventStatusChanged,
			OrderID:   id,
			From:      domain.OrderStatusPacking,
			To:        domain.OrderStatusReady,
			Automatic: true,
			At:        now,
		})
	}
	return advanced
}

// PackingRemaining секунды до конца упаковки; false если таймера нет
func (s *OrderService) PackingRemaining(id string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.timers[id]; !ok {
		return 0, false
	}
	return s.remaining(id, s.now()), true
}

func (s *OrderService) remaining(id string, now time.Time) int {
	until, ok := s.timers[id]
	if !ok {
		return 0
	}
	secs := math.Ceil(until.Sub(now).Seconds())
	if secs < 0 {
		return 0
	}
	return int(secs)
}

// transition moves an order to a new status if the state machine allows it.
// extra runs under the lock after the status check.
func (s *OrderService) transition(ctx context.Context, id string, to domain.OrderStatus, extra func(o *domain.Order)) (*domain.Order, error) {
	var ev domain.OrderEvent
	o, err := s.mutate(ctx, id, func(o *domain.Order) error {
		if !domain.CanTransition(o.Status, to) {
			return ErrInvalidState
		}
		if to == domain.OrderStatusDelivered {
			if o.Payment.Due() {
				return ErrPaymentDue
			}
			if !domain.CanDeliver(*o) {
				return ErrNotPacked
			}
		}
		ev = domain.OrderEvent{Type: domain.EventStatusChanged, OrderID: o.ID, From: o.Status, To: to}
		o.Status = to
		if extra != nil {
			extra(o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ev.Payment = o.Payment.Status
	ev.At = o.UpdatedAt
	s.log.Info("order status changed", "order_id", o.ID, "from", ev.From, "to", ev.To)
	s.emit(ctx, ev)
	return o, nil
}

// payment applies fn and emits a payment event when it reports a change
func (s *OrderService) payment(ctx context.Context, id string, fn func(o *domain.Order) (bool, error)) (*domain.Order, error) {
	changed := false
	o, err := s.mutate(ctx, id, func(o *domain.Order) error {
		var err error
		changed, err = fn(o)
		return err
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.log.Info("payment changed", "order_id", o.ID, "payment", o.Payment.Status)
		s.emit(ctx, domain.OrderEvent{Type: domain.EventPaymentChanged, OrderID: o.ID, Payment: o.Payment.Status, At: o.UpdatedAt})
	}
	return o, nil
}

// mutate runs fn on the stored order under the lock, bumps updated_at and
// persists. Nothing is written when fn fails.
func (s *OrderService) mutate(ctx context.Context, id string, fn func(o *domain.Order) error) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	o := s.orders[i].Clone()
	if err := fn(&o); err != nil {
		return nil, err
	}
	o.UpdatedAt = s.now()
	s.orders[i] = o
	s.persist(ctx)

	out := o.Clone()
	return &out, nil
}

func (s *OrderService) indexOf(id string) int {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	return -1
}

// persist must be called with mu held
func (s *OrderService) persist(ctx context.Context) {
	if err := s.col.SaveOrderState(ctx, s.orders, s.timers); err != nil {
		s.log.Error("failed to persist orders", "error", err)
	}
}

func (s *OrderService) emit(ctx context.Context, ev domain.OrderEvent) {
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.log.Warn("notify failed", "type", ev.Type, "order_id", ev.OrderID, "error", err)
	}
}
