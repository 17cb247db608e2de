package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sushikoi/internal/domain"
	"sushikoi/internal/logging"
)

// Collections типизированный доступ к коллекциям поверх Store.
// Ошибки чтения и разбора не пробрасываются: возвращается пустая коллекция.
type Collections struct {
	store Store
	log   *logging.Logger
}

func NewCollections(store Store, log *logging.Logger) *Collections {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Collections{store: store, log: log.WithComponent("storage")}
}

func (c *Collections) load(ctx context.Context, key string, dst any) bool {
	raw, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		c.log.Warn("storage read failed, using empty collection", "key", key, "error", err)
		return false
	}
	if len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn("storage parse failed, using empty collection", "key", key, "error", err)
		return false
	}
	return true
}

// LoadOrders читает заказы и нормализует устаревшие статусы
func (c *Collections) LoadOrders(ctx context.Context) []domain.Order {
	var orders []domain.Order
	if !c.load(ctx, KeyOrders, &orders) {
		return []domain.Order{}
	}
	for i := range orders {
		orders[i].Status = domain.NormalizeStatus(string(orders[i].Status))
		orders[i].Payment.Status = domain.NormalizePaymentStatus(string(orders[i].Payment.Status))
		if orders[i].Payment.Method != "" {
			orders[i].Payment.Method = domain.NormalizePaymentMethod(string(orders[i].Payment.Method))
		}
		// the stored total is never trusted
		orders[i].Total = domain.ComputeTotal(orders[i].Items)
	}
	return orders
}

// LoadTimers читает таймеры упаковки: id заказа -> момент окончания
func (c *Collections) LoadTimers(ctx context.Context) map[string]time.Time {
	var raw map[string]int64
	timers := make(map[string]time.Time)
	if !c.load(ctx, KeyPackingTimers, &raw) {
		return timers
	}
	for id, ms := range raw {
		timers[id] = time.UnixMilli(ms).UTC()
	}
	return timers
}

// SaveOrderState пишет заказы и таймеры одной операцией
func (c *Collections) SaveOrderState(ctx context.Context, orders []domain.Order, timers map[string]time.Time) error {
	ob, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode orders: %w", err)
	}
	raw := make(map[string]int64, len(timers))
	for id, t := range timers {
		raw[id] = t.UnixMilli()
	}
	tb, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode timers: %w", err)
	}
	return c.store.SetMany(ctx, map[string][]byte{
		KeyOrders:        ob,
		KeyPackingTimers: tb,
	})
}

func (c *Collections) LoadCustomers(ctx context.Context) []domain.Customer {
	var customers []domain.Customer
	if !c.load(ctx, KeyCustomers, &customers) {
		return []domain.Customer{}
	}
	return customers
}

func (c *Collections) SaveCustomers(ctx context.Context, customers []domain.Customer) error {
	b, err := json.Marshal(customers)
	if err != nil {
		return fmt.Errorf("encode customers: %w", err)
	}
	return c.store.Set(ctx, KeyCustomers, b)
}

func (c *Collections) LoadPromotions(ctx context.Context) []domain.Promotion {
	var promos []domain.Promotion
	if !c.load(ctx, KeyPromotions, &promos) {
		return []domain.Promotion{}
	}
	return promos
}

func (c *Collections) SavePromotions(ctx context.Context, promos []domain.Promotion) error {
	b, err := json.Marshal(promos)
	if err != nil {
		return fmt.Errorf("encode promotions: %w", err)
	}
	return c.store.Set(ctx, KeyPromotions, b)
}
