package service

import (
	"context"
	"time"

	"sushikoi/internal/domain"
	"sushikoi/internal/logging"
)

// AdvancePackingTimers returns the order list and timer map as they are at
// now: every packing order whose timer expired becomes ready and packed, and
// its timer is dropped, as is any timer whose order is not packing. The
// inputs are not modified; when nothing is due they are returned as is.
func AdvancePackingTimers(orders []domain.Order, timers map[string]time.Time, now time.Time) ([]domain.Order, map[string]time.Time, []string) {
	packing := make(map[string]int, len(timers))
	for i := range orders {
		if orders[i].Status == domain.OrderStatusPacking {
			packing[orders[i].ID] = i
		}
	}

	due := false
	for id, until := range timers {
		if _, ok := packing[id]; !ok || !now.Before(until) {
			due = true
			break
		}
	}
	if !due {
		return orders, timers, nil
	}

	nextOrders := make([]domain.Order, len(orders))
	copy(nextOrders, orders)
	nextTimers := make(map[string]time.Time, len(timers))
	var advanced []string
	for id, until := range timers {
		i, ok := packing[id]
		if !ok {
			continue
		}
		if now.Before(until) {
			nextTimers[id] = until
			continue
		}
		o := nextOrders[i].Clone()
		o.Status = domain.OrderStatusReady
		o.Packed = true
		o.PackUntil = nil
		o.UpdatedAt = now
		nextOrders[i] = o
		advanced = append(advanced, id)
	}
	return nextOrders, nextTimers, advanced
}

// Ticker drives the packing countdown. Ticks run on a single goroutine so
// one always finishes before the next starts.
type Ticker struct {
	svc   *OrderService
	every time.Duration
	log   *logging.Logger
}

func NewTicker(svc *OrderService, every time.Duration, log *logging.Logger) *Ticker {
	if every <= 0 {
		every = 500 * time.Millisecond
	}
	if log == nil {
		log = logging.NopLogger()
	}
	return &Ticker{svc: svc, every: every, log: log.WithComponent("ticker")}
}

// Start runs the ticker in its own goroutine. The returned channel is closed
// once the last tick has finished after ctx is done.
func (t *Ticker) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		t.Run(ctx)
	}()
	return done
}

// Run blocks until ctx is done
func (t *Ticker) Run(ctx context.Context) {
	tk := time.NewTicker(t.every)
	defer tk.Stop()
	t.log.Debug("packing ticker started", "every", t.every.String())
	for {
		select {
		case <-ctx.Done():
			t.log.Debug("packing ticker stopped")
			return
		case <-tk.C:
			if ids := t.svc.AdvanceTimers(ctx, t.svc.now()); len(ids) > 0 {
				t.log.Debug("timers advanced", "count", len(ids))
			}
		}
	}
}
