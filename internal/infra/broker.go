package infra

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

func NewBrokerConnection(c context.Context, config config.Broker) *amqp.Connection {
	c, span := otel.Tracer.Start(c, "main NewBrokerConnection")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main NewBrokerConnection").
		Str(log.KeyProcess, "dialing rabbitmq").
		Logger()

	logger.Info().Msg("dialing rabbitmq")
	conn, err := amqp.DialConfig(config.URL, amqp.Config{
		Properties: amqp.Table{"connection_name": "storefront"},
	})
	if err != nil {
		err = fmt.Errorf("failed dialing rabbitmq with error=%w", err)
		otel.RecordError(err, span)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("dialed rabbitmq")

	return conn
}
