package notify

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sushikoi/internal/domain"
)

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

type pendingConfirm chan bool

func (c pendingConfirm) WaitContext(ctx context.Context) (bool, error) {
	select {
	case ack := <-c:
		return ack, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

type fakePublisher struct {
	mu       sync.Mutex
	keys     []string
	bodies   [][]byte
	confirms []pendingConfirm
}

func (p *fakePublisher) publish(_ context.Context, _, key string, msg amqp.Publishing) (confirmation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := make(pendingConfirm, 1)
	p.keys = append(p.keys, key)
	p.bodies = append(p.bodies, msg.Body)
	p.confirms = append(p.confirms, c)
	return c, nil
}

func (p *fakePublisher) Close() error { return nil }

func TestAMQPNotifier_WaitsForItsOwnConfirm(t *testing.T) {
	pub := &fakePublisher{}
	n := &AMQPNotifier{pub: pub, exchange: "orders"}

	// first publish gives up before the broker answers
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := n.Notify(ctx, domain.OrderEvent{Type: domain.EventOrderCreated, OrderID: "ORD-A"})
	require.ErrorIs(t, err, context.Canceled)
	pub.confirms[0] <- true

	// the late ack of ORD-A must not be taken as the answer for ORD-B
	done := make(chan error, 1)
	go func() {
		done <- n.Notify(context.Background(), domain.OrderEvent{
			Type: domain.EventStatusChanged, OrderID: "ORD-B", To: domain.OrderStatusCooking,
		})
	}()
	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.confirms) == 2
	}, timeout, tick)
	pub.confirms[1] <- false
	assert.ErrorIs(t, <-done, ErrNacked)

	assert.Equal(t, []string{"order.created", "order.cooking"}, pub.keys)
	var ev domain.OrderEvent
	require.NoError(t, json.Unmarshal(pub.bodies[1], &ev))
	assert.Equal(t, "ORD-B", ev.OrderID)
}

func TestAMQPNotifier_Ack(t *testing.T) {
	pub := &fakePublisher{}
	n := &AMQPNotifier{pub: pub, exchange: "orders"}

	done := make(chan error, 1)
	go func() {
		done <- n.Notify(context.Background(), domain.OrderEvent{Type: domain.EventOrderRemoved, OrderID: "ORD-C"})
	}()
	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.confirms) == 1
	}, timeout, tick)
	pub.confirms[0] <- true
	assert.NoError(t, <-done)
	assert.NoError(t, n.Close())
}
