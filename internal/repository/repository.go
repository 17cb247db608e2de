package repository

import (
	"context"
	"errors"
	"fmt"

	"sushikoi/internal/config"
)

// ErrNotFound возвращается, когда ключ или сущность не найдены
var ErrNotFound = errors.New("not found")

// Fixed storage keys
const (
	KeyOrders        = "orders"
	KeyPackingTimers = "orders_packing_timers"
	KeyCustomers     = "customers"
	KeyPromotions    = "promotions"
)

// Store key-value хранилище, значения хранятся как JSON коллекции
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetMany пишет все ключи атомарно
	SetMany(ctx context.Context, entries map[string][]byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open создаёт хранилище по настройкам
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLite(ctx, cfg.SQLitePath)
	case "postgres":
		return OpenPostgres(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
