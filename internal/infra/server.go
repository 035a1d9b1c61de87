package infra

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

const shutdownTimeout = 15 * time.Second

// RunHttpServer serves handler on addr until c is cancelled, then drains in-flight
// requests before returning.
func RunHttpServer(c context.Context, addr string, handler http.Handler) error {
	c, span := otel.Tracer.Start(c, "main RunHttpServer")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main RunHttpServer").
		Logger()

	httpServer := http.Server{
		Addr:         addr,
		BaseContext:  func(net.Listener) context.Context { return logger.WithContext(context.WithoutCancel(c)) },
		Handler:      handler,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str(log.KeyProcess, "start server").Msgf("start listening request at %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("error=%w occured while server is running", err)
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		return nil
	case <-c.Done():
	}

	logger = logger.With().Str(log.KeyProcess, "shutting down http server").Logger()
	logger.Info().Msg("received interuption signal shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		err = fmt.Errorf("failed shutting down http server with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("shutdown http server")

	return nil
}
