package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/product/pkg/response"
)

func catalogConfig(baseURL string) config.Catalog {
	return config.Catalog{
		BaseURL:             baseURL,
		Timeout:             time.Second,
		MaxConsecutiveFails: 2,
		OpenTimeout:         time.Minute,
	}
}

func productHandler(t *testing.T, p response.Product) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/"+p.ID.String() {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     "success",
			"statusCode": http.StatusOK,
			"message":    "found product",
			"data":       map[string]interface{}{"product": p},
		})
		require.NoError(t, err)
	}
}

func TestFindProductById(t *testing.T) {
	product := response.Product{
		ID:          uuid.New(),
		Name:        "Pen",
		Price:       decimal.RequireFromString("2.50"),
		Image:       "pen.png",
		Description: "blue ink",
		CategoryID:  uuid.NullUUID{UUID: uuid.New(), Valid: true},
	}
	server := httptest.NewServer(productHandler(t, product))
	defer server.Close()

	tests := []struct {
		name        string
		id          uuid.UUID
		expectedErr error
	}{
		{name: "given existing product should return product", id: product.ID},
		{name: "given unknown product should return ErrProductNotFound", id: uuid.New(), expectedErr: inErrors.ErrProductNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(catalogConfig(server.URL + "/"))
			actual, err := client.FindProductById(context.Background(), tt.id)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, product.ID, actual.ID)
			assert.Equal(t, product.Name, actual.Name)
			assert.True(t, product.Price.Equal(actual.Price))
			assert.Equal(t, product.CategoryID, actual.CategoryID)
		})
	}
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(productHandler(t, response.Product{ID: uuid.New()}))
	defer server.Close()

	client := NewClient(catalogConfig(server.URL))
	for range 5 {
		_, err := client.FindProductById(context.Background(), uuid.New())
		assert.ErrorIs(t, err, inErrors.ErrProductNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, client.State())
}

func TestBreakerOpensOnFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(catalogConfig(server.URL))
	for range 2 {
		_, err := client.FindProductById(context.Background(), uuid.New())
		assert.ErrorIs(t, err, inErrors.ErrCatalogUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen, client.State())

	_, err := client.FindProductById(context.Background(), uuid.New())
	assert.ErrorIs(t, err, inErrors.ErrCatalogUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), hits.Load())
}

func TestUnreachableCatalog(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := NewClient(catalogConfig(server.URL))
	_, err := client.FindProductById(context.Background(), uuid.New())
	assert.ErrorIs(t, err, inErrors.ErrCatalogUnavailable)
}
