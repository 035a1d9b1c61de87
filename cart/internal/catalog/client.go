// Package catalog fetches products from the product service on behalf of the cart.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/store"
	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/product/pkg/response"
)

type productEnvelope struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       struct {
		Product response.Product `json:"product"`
	} `json:"data"`
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[store.Product]
}

func NewClient(cfg config.Catalog) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		},
		breaker: gobreaker.NewCircuitBreaker[store.Product](gobreaker.Settings{
			Name:        "catalog",
			MaxRequests: 1,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.MaxConsecutiveFails
			},
			// a missing product is an answer, not an outage
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, inErrors.ErrProductNotFound)
			},
		}),
	}
}

func (cl *Client) State() gobreaker.State {
	return cl.breaker.State()
}

// FindProductById returns ErrProductNotFound when the product service answers 404 and
// ErrCatalogUnavailable when it cannot be reached or the breaker is open.
func (cl *Client) FindProductById(c context.Context, id uuid.UUID) (store.Product, error) {
	c, span := otel.Tracer.Start(c, "CatalogClient FindProductById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogClient FindProductById").
		Str(log.KeyProductID, id.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "fetching product from catalog").Logger()
	logger.Trace().Msg("fetching product from catalog")
	product, err := cl.breaker.Execute(func() (store.Product, error) {
		return cl.fetch(c, id)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("catalog breaker rejected request with error=%w", errors.Join(err, inErrors.ErrCatalogUnavailable))
	}
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return store.Product{}, err
	}
	logger.Trace().Msg("fetched product from catalog")

	return product, nil
}

func (cl *Client) fetch(c context.Context, id uuid.UUID) (store.Product, error) {
	endpoint, err := url.JoinPath(cl.baseURL, "products", id.String())
	if err != nil {
		return store.Product{}, fmt.Errorf("failed building product url with error=%w", err)
	}
	req, err := http.NewRequestWithContext(c, http.MethodGet, endpoint, nil)
	if err != nil {
		return store.Product{}, fmt.Errorf("failed creating product request with error=%w", err)
	}
	if requestID := log.RequestIDFromContext(c); requestID != "" {
		req.Header.Set(inHttp.HeaderRequestID, requestID)
	}

	resp, err := cl.http.Do(req)
	if err != nil {
		return store.Product{}, fmt.Errorf("failed requesting product with error=%w", errors.Join(err, inErrors.ErrCatalogUnavailable))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return store.Product{}, fmt.Errorf("productId=%s with error=%w", id, inErrors.ErrProductNotFound)
	case resp.StatusCode != http.StatusOK:
		return store.Product{}, fmt.Errorf("catalog responded statusCode=%d with error=%w", resp.StatusCode, inErrors.ErrCatalogUnavailable)
	}

	body := productEnvelope{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return store.Product{}, fmt.Errorf("failed decoding product with error=%w", errors.Join(err, inErrors.ErrCatalogUnavailable))
	}
	p := body.Data.Product
	if p.ID != id {
		return store.Product{}, fmt.Errorf("catalog returned productId=%s for productId=%s with error=%w", p.ID, id, inErrors.ErrCatalogUnavailable)
	}

	return store.Product{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Image:       p.Image,
		Description: p.Description,
		CategoryID:  p.CategoryID,
	}, nil
}
