package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	cartOtel "github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
)

const publishTimeout = 3 * time.Second

type channel interface {
	PublishWithContext(c context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends cart events to a topic exchange. Publishes are serialised because an
// amqp channel must not be shared between concurrent publishers.
type Publisher struct {
	mu       sync.Mutex
	ch       channel
	exchange string
}

func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed opening channel with error=%w", err)
	}
	err = ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed declaring exchange=%s with error=%w", exchange, err)
	}
	return &Publisher{ch: ch, exchange: exchange}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishCartCheckedOut(c context.Context, ev CartCheckedOut) error {
	c, span := cartOtel.Tracer.Start(c, "Publisher PublishCartCheckedOut")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Publisher PublishCartCheckedOut").
		Str(log.KeyRoutingKey, CartCheckedOutRoutingKey).
		Str(log.KeyCheckoutID, ev.CheckoutID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "marshaling event").Logger()
	body, err := json.Marshal(ev)
	if err != nil {
		err = fmt.Errorf("failed marshaling CartCheckedOut with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(c, headerCarrier(headers))
	if requestID := log.RequestIDFromContext(c); requestID != "" {
		headers["x-request-id"] = requestID
	}

	logger = logger.With().Str(log.KeyProcess, "publishing event").Logger()
	logger.Trace().Msg("publishing event")
	pubCtx, cancel := context.WithTimeout(c, publishTimeout)
	defer cancel()

	p.mu.Lock()
	err = p.ch.PublishWithContext(pubCtx, p.exchange, CartCheckedOutRoutingKey, false, false, amqp.Publishing{
		AppId:        constants.AppCartService,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.CheckoutID.String(),
		Timestamp:    ev.Timestamp,
		Type:         ev.EventType,
		Headers:      headers,
		Body:         body,
	})
	p.mu.Unlock()
	if err != nil {
		err = fmt.Errorf("failed publishing CartCheckedOut with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("published event")

	return nil
}

// headerCarrier lets the otel propagator write trace context into amqp headers.
type headerCarrier amqp.Table

func (h headerCarrier) Get(key string) string {
	v, _ := h[key].(string)
	return v
}

func (h headerCarrier) Set(key string, value string) {
	h[key] = value
}

func (h headerCarrier) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	return keys
}
