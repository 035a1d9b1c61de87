package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublishCartCheckedOut(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ev := CartCheckedOut{
		EventType:  CartCheckedOutType,
		CheckoutID: uuid.New(),
		UserID:     uuid.New(),
		Items: []CartItem{
			{ProductID: uuid.New(), Name: "Pen", Quantity: 2, Price: decimal.NewFromInt(2)},
		},
		TotalAmount: decimal.NewFromInt(4),
		Timestamp:   time.Now().UTC(),
	}

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "given healthy channel should publish to exchange"},
		{name: "given failing channel should return error", err: errors.New("channel closed"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &fakeChannel{err: tt.err}
			publisher := &Publisher{ch: ch, exchange: "storefront.events"}

			c, span := tp.Tracer("test").Start(context.Background(), "checkout")
			err := publisher.PublishCartCheckedOut(c, ev)
			span.End()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, "storefront.events", ch.exchange)
			assert.Equal(t, CartCheckedOutRoutingKey, ch.key)
			assert.Equal(t, "application/json", ch.msg.ContentType)
			assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
			assert.Equal(t, ev.CheckoutID.String(), ch.msg.MessageId)
			assert.NotEmpty(t, ch.msg.Headers["traceparent"])

			actual := CartCheckedOut{}
			require.NoError(t, json.Unmarshal(ch.msg.Body, &actual))
			assert.Equal(t, ev.CheckoutID, actual.CheckoutID)
			assert.True(t, ev.TotalAmount.Equal(actual.TotalAmount))
			require.Len(t, actual.Items, 1)
			assert.Equal(t, int32(2), actual.Items[0].Quantity)
		})
	}
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	require.NoError(t, (&Publisher{ch: ch}).Close())
	assert.True(t, ch.closed)
}
