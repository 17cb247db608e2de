package service

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"

	"sushikoi/internal/domain"
)

// Stats агрегаты для панели
type Stats struct {
	Orders     int                        `json:"orders"`
	Revenue    int64                      `json:"revenue"`
	ByStatus   map[domain.OrderStatus]int `json:"by_status"`
	PaymentDue int                        `json:"payment_due"`
	Packing    int                        `json:"packing"`
}

// Stats считается заново при каждом вызове
func (s *OrderService) Stats(_ context.Context) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Orders: len(s.orders), ByStatus: make(map[domain.OrderStatus]int, len(domain.AllStatuses))}
	for _, status := range domain.AllStatuses {
		st.ByStatus[status] = 0
	}
	for _, o := range s.orders {
		st.Revenue += o.Total
		st.ByStatus[o.Status]++
		if o.Payment.Due() && o.Status != domain.OrderStatusCancelled {
			st.PaymentDue++
		}
	}
	st.Packing = len(s.timers)
	return st
}

// ClientSummary сколько заказал и потратил один клиент
type ClientSummary struct {
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Orders    int       `json:"orders"`
	Spent     int64     `json:"spent"`
	LastOrder time.Time `json:"last_order"`
}

// TopClients лучшие клиенты по сумме неотменённых заказов
func (s *OrderService) TopClients(_ context.Context, n int) []ClientSummary {
	s.mu.Lock()
	byKey := make(map[string]*ClientSummary)
	for _, o := range s.orders {
		if o.Status == domain.OrderStatusCancelled {
			continue
		}
		key := clientKey(o.Customer)
		if key == "" {
			continue
		}
		c, ok := byKey[key]
		if !ok {
			c = &ClientSummary{Name: strings.TrimSpace(o.Customer.Name), Phone: strings.TrimSpace(o.Customer.Phone)}
			byKey[key] = c
		}
		c.Orders++
		c.Spent += o.Total
		if o.CreatedAt.After(c.LastOrder) {
			c.LastOrder = o.CreatedAt
		}
	}
	s.mu.Unlock()

	out := make([]ClientSummary, 0, len(byKey))
	for _, c := range byKey {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Spent != out[j].Spent {
			return out[i].Spent > out[j].Spent
		}
		if out[i].Orders != out[j].Orders {
			return out[i].Orders > out[j].Orders
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// clientKey groups by phone digits, falling back to the lowercased name
func clientKey(c domain.Customer) string {
	if d := digits(c.Phone); d != "" {
		return "tel:" + d
	}
	if name := strings.ToLower(strings.TrimSpace(c.Name)); name != "" {
		return "name:" + name
	}
	return ""
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
