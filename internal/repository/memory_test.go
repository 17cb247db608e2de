package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"sushikoi/internal/domain"
)

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sq,
	}
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Get(ctx, "missing"); err != ErrNotFound {
				t.Fatalf("expected not found, got %v", err)
			}
			if err := store.Set(ctx, "k", []byte(`[1]`)); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := store.Set(ctx, "k", []byte(`[2]`)); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err := store.Get(ctx, "k")
			if err != nil || string(got) != `[2]` {
				t.Fatalf("get: %q %v", got, err)
			}
			if err := store.Delete(ctx, "k"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := store.Delete(ctx, "k"); err != ErrNotFound {
				t.Fatalf("expected not found on second delete, got %v", err)
			}
		})
	}
}

func TestStore_SetMany(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			err := store.SetMany(ctx, map[string][]byte{"a": []byte(`"1"`), "b": []byte(`"2"`)})
			if err != nil {
				t.Fatalf("set many: %v", err)
			}
			a, _ := store.Get(ctx, "a")
			b, _ := store.Get(ctx, "b")
			if string(a) != `"1"` || string(b) != `"2"` {
				t.Fatalf("unexpected values %q %q", a, b)
			}
		})
	}
}

func TestMemoryStore_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, "k", []byte("abc"))
	v, _ := store.Get(ctx, "k")
	v[0] = 'x'
	again, _ := store.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value mutated: %q", again)
	}
}

func TestCollections_OrdersRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewCollections(NewMemoryStore(), nil)
	now := time.Date(2025, 9, 28, 12, 0, 0, 0, time.UTC)
	orders := []domain.Order{{
		ID:        "ORD-1",
		Items:     []domain.OrderItem{{Name: "Promo", Quantity: 2, UnitPrice: 7000}},
		Total:     14000,
		Status:    domain.OrderStatusPacking,
		Payment:   domain.Payment{Method: domain.PaymentMethodCash, Status: domain.PaymentStatusPending, Amount: 14000},
		CreatedAt: now,
		UpdatedAt: now,
	}}
	timers := map[string]time.Time{"ORD-1": now.Add(90 * time.Second)}
	if err := c.SaveOrderState(ctx, orders, timers); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := c.LoadOrders(ctx)
	if len(got) != 1 || got[0].ID != "ORD-1" || got[0].Status != domain.OrderStatusPacking || got[0].Total != 14000 {
		t.Fatalf("unexpected orders: %+v", got)
	}
	if !got[0].CreatedAt.Equal(now) {
		t.Fatalf("created_at lost: %v", got[0].CreatedAt)
	}
	gotTimers := c.LoadTimers(ctx)
	if !gotTimers["ORD-1"].Equal(now.Add(90 * time.Second)) {
		t.Fatalf("unexpected timers: %v", gotTimers)
	}
}

func TestCollections_LegacyStatusNormalized(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, KeyOrders, []byte(`[
		{"id":"a","status":"COCINA","items":[{"name":"x","qty":1,"unit_price":100}],"total":5,"payment":{"status":"PAGADO"}},
		{"id":"b","status":"RUTA","items":[],"payment":{"status":"PENDIENTE"}},
		{"id":"c","status":"???","items":[],"payment":{}}
	]`))
	got := NewCollections(store, nil).LoadOrders(ctx)
	if len(got) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(got))
	}
	if got[0].Status != domain.OrderStatusCooking || got[0].Payment.Status != domain.PaymentStatusPaid {
		t.Fatalf("order a not normalized: %+v", got[0])
	}
	if got[0].Total != 100 {
		t.Fatalf("total not recomputed: %d", got[0].Total)
	}
	if got[1].Status != domain.OrderStatusReady {
		t.Fatalf("order b not normalized: %s", got[1].Status)
	}
	if got[2].Status != domain.OrderStatusPending || got[2].Payment.Status != domain.PaymentStatusPending {
		t.Fatalf("order c not defaulted: %+v", got[2])
	}
}

func TestCollections_CorruptDataFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, KeyOrders, []byte(`{not json`))
	_ = store.Set(ctx, KeyPackingTimers, []byte(`[]`))
	c := NewCollections(store, nil)
	if got := c.LoadOrders(ctx); got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
	if got := c.LoadTimers(ctx); len(got) != 0 {
		t.Fatalf("expected empty timers, got %v", got)
	}
	if got := c.LoadPromotions(ctx); len(got) != 0 {
		t.Fatalf("expected empty promotions, got %v", got)
	}
}

func TestCollections_CustomersAndPromotions(t *testing.T) {
	ctx := context.Background()
	c := NewCollections(NewMemoryStore(), nil)
	if err := c.SaveCustomers(ctx, []domain.Customer{{ID: "c1", Name: "Ana"}}); err != nil {
		t.Fatal(err)
	}
	if err := c.SavePromotions(ctx, []domain.Promotion{{ID: "p1", Title: "Promo Familiar", Active: true}}); err != nil {
		t.Fatal(err)
	}
	if got := c.LoadCustomers(ctx); len(got) != 1 || got[0].Name != "Ana" {
		t.Fatalf("customers: %+v", got)
	}
	if got := c.LoadPromotions(ctx); len(got) != 1 || got[0].Title != "Promo Familiar" {
		t.Fatalf("promotions: %+v", got)
	}
}
