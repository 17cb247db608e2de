// Package notify publishes order events to whoever needs to hear about them.
package notify

import (
	"context"
	"fmt"
	"strings"

	"sushikoi/internal/config"
	"sushikoi/internal/domain"
	"sushikoi/internal/logging"
)

// Notifier receives order events after the state change is committed.
// Implementations must not block for long; the caller does not retry.
type Notifier interface {
	Notify(ctx context.Context, ev domain.OrderEvent) error
	Close() error
}

// RoutingKey maps an event to a topic key: status changes become
// "order.<new status>", everything else keeps its type.
func RoutingKey(ev domain.OrderEvent) string {
	if ev.Type == domain.EventStatusChanged && ev.To != "" {
		return "order." + strings.ToLower(string(ev.To))
	}
	return ev.Type
}

// Nop drops every event
type Nop struct{}

func (Nop) Notify(context.Context, domain.OrderEvent) error { return nil }
func (Nop) Close() error                                    { return nil }

// LogNotifier writes events to the structured log
type LogNotifier struct {
	log *logging.Logger
}

func NewLogNotifier(log *logging.Logger) *LogNotifier {
	if log == nil {
		log = logging.NopLogger()
	}
	return &LogNotifier{log: log.WithComponent("notify")}
}

func (n *LogNotifier) Notify(_ context.Context, ev domain.OrderEvent) error {
	args := []any{"key", RoutingKey(ev), "order_id", ev.OrderID}
	if ev.From != "" || ev.To != "" {
		args = append(args, "from", ev.From, "to", ev.To)
	}
	if ev.Payment != "" {
		args = append(args, "payment", ev.Payment)
	}
	if ev.Automatic {
		args = append(args, "automatic", true)
	}
	n.log.Info("order event", args...)
	return nil
}

func (n *LogNotifier) Close() error { return nil }

// Open builds the notifier selected by cfg.Driver
func Open(cfg config.NotifyConfig, log *logging.Logger) (Notifier, error) {
	switch cfg.Driver {
	case "", "none":
		return Nop{}, nil
	case "log":
		return NewLogNotifier(log), nil
	case "amqp":
		n, err := DialAMQP(cfg.AMQP)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unknown notify driver %q", cfg.Driver)
	}
}
