package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"sushikoi/internal/config"
	"sushikoi/internal/domain"
)

// ErrNacked is returned when the broker refuses a publish
var ErrNacked = errors.New("publish NACK from broker")

// confirmation is the broker answer to one publish
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// publisher is the part of a confirm-mode channel the notifier uses
type publisher interface {
	publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)
	Close() error
}

type channelPublisher struct {
	ch *amqp.Channel
}

func (p channelPublisher) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	dc, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("channel is not in confirm mode")
	}
	return dc, nil
}

func (p channelPublisher) Close() error { return p.ch.Close() }

// AMQPNotifier publishes events as JSON to a topic exchange and waits for
// the broker confirm of that very publish.
type AMQPNotifier struct {
	conn     *amqp.Connection
	pub      publisher
	exchange string
}

// DialAMQP connects, declares the exchange and enables publisher confirms
func DialAMQP(cfg config.AMQPConfig) (*AMQPNotifier, error) {
	vhost := cfg.VHost
	if vhost == "" {
		vhost = "/"
	}
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/%s", cfg.User, cfg.Password, cfg.Host, cfg.Port, vhost)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}

	return &AMQPNotifier{conn: conn, pub: channelPublisher{ch: ch}, exchange: cfg.Exchange}, nil
}

func (n *AMQPNotifier) Notify(ctx context.Context, ev domain.OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conf, err := n.pub.publish(ctx, n.exchange, RoutingKey(ev), amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}

	ack, err := conf.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !ack {
		return ErrNacked
	}
	return nil
}

func (n *AMQPNotifier) Close() error {
	if n.pub != nil {
		_ = n.pub.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
