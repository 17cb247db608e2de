package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sushikoi/internal/config"
	"sushikoi/internal/domain"
	"sushikoi/internal/logging"
)

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "order.ready", RoutingKey(domain.OrderEvent{Type: domain.EventStatusChanged, To: domain.OrderStatusReady}))
	assert.Equal(t, "order.created", RoutingKey(domain.OrderEvent{Type: domain.EventOrderCreated}))
	assert.Equal(t, "order.payment_changed", RoutingKey(domain.OrderEvent{Type: domain.EventPaymentChanged}))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logging.NewWriter(&buf, "DEBUG"))
	err := n.Notify(context.Background(), domain.OrderEvent{
		Type:      domain.EventStatusChanged,
		OrderID:   "ORD-1",
		From:      domain.OrderStatusPacking,
		To:        domain.OrderStatusReady,
		Automatic: true,
		At:        time.Now(),
	})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, `"key":"order.ready"`)
	assert.Contains(t, out, `"order_id":"ORD-1"`)
	assert.Contains(t, out, `"automatic":true`)
	assert.Contains(t, out, `"component":"notify"`)
}

func TestOpen(t *testing.T) {
	n, err := Open(config.NotifyConfig{Driver: "none"}, nil)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, n)

	n, err = Open(config.NotifyConfig{Driver: "log"}, logging.NopLogger())
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)

	_, err = Open(config.NotifyConfig{Driver: "kafka"}, nil)
	assert.Error(t, err)
}
